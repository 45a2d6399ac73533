package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian-crm/internal/crm/followups"
	jobmetrics "github.com/meridian-crm/meridian-crm/internal/jobs"
)

// FollowUpReminderJob flags a single reminder as due. Tasks of this type are
// enqueued with ProcessAt set to the reminder time when the follow-up is
// created.
type FollowUpReminderJob struct {
	Repo    followups.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewFollowUpReminderJob initialises the per-reminder handler.
func NewFollowUpReminderJob(repo followups.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *FollowUpReminderJob {
	return &FollowUpReminderJob{Repo: repo, Logger: logger, Metrics: metrics}
}

// Handle marks the follow-up referenced in the payload as due.
func (j *FollowUpReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("followup reminder: handler not configured")
	}
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.FollowUpID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track("followup_reminder")
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Repo.MarkDue(ctx, payload.FollowUpID); err != nil {
		resultErr = err
		if j.Logger != nil {
			j.Logger.Error("mark reminder due",
				slog.Any("error", err),
				slog.Int64("followup_id", payload.FollowUpID),
				slog.Int64("lead_id", payload.LeadID),
			)
		}
		return resultErr
	}

	j.Metrics.AddRemindersDue(1)
	if j.Logger != nil {
		j.Logger.Info("reminder due",
			slog.Int64("followup_id", payload.FollowUpID),
			slog.Int64("lead_id", payload.LeadID),
		)
	}
	return resultErr
}

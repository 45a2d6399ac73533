package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian-crm/internal/crm/followups"
	jobmetrics "github.com/meridian-crm/meridian-crm/internal/jobs"
)

// ReminderScanJob sweeps follow-ups for reminders whose time has passed.
// It is the safety net behind the per-reminder delayed tasks: if an enqueue
// was lost or the worker was down, the next sweep still flags the reminder.
type ReminderScanJob struct {
	Repo    followups.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReminderScanJob initialises the scan handler.
func NewReminderScanJob(repo followups.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderScanJob {
	return &ReminderScanJob{
		Repo:    repo,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *ReminderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reminder scan: handler not configured")
	}
	if j.Repo == nil {
		return errors.New("reminder scan: repository not configured")
	}

	tracker := j.metrics().Track("followup_reminder_scan")
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	count, err := j.Repo.MarkDueBefore(ctx, now)
	if err != nil {
		resultErr = err
		j.logger().Error("reminder scan failed", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddRemindersDue(count)
	if count > 0 {
		j.logger().Info("flagged due reminders",
			slog.Int64("count", count),
			slog.Time("cutoff", now),
		)
	}
	return resultErr
}

func (j *ReminderScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *ReminderScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReminderScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}

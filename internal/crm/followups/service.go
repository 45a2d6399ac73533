package followups

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

// ReminderScheduler enqueues the background task that will flag a reminder
// as due once its time arrives. jobs.Client satisfies it.
type ReminderScheduler interface {
	EnqueueReminder(ctx context.Context, followUpID, leadID int64, remindAt time.Time) error
}

type Service struct {
	logger    *slog.Logger
	repo      Repository
	scheduler ReminderScheduler
}

func NewService(logger *slog.Logger, repo Repository, scheduler ReminderScheduler) *Service {
	return &Service{logger: logger, repo: repo, scheduler: scheduler}
}

func (s *Service) ListForLead(ctx context.Context, leadID int64) ([]FollowUp, error) {
	if leadID <= 0 {
		return nil, shared.ErrInvalidID
	}
	return s.repo.ListForLead(ctx, leadID)
}

// Add records a comment on the lead. When the comment carries a reminder
// time, a delayed task is enqueued; enqueue failures are logged but do not
// lose the comment, the periodic due-scan will still catch the reminder.
func (s *Service) Add(ctx context.Context, leadID, authorID int64, req CreateFollowUpRequest) (*FollowUp, error) {
	if leadID <= 0 {
		return nil, shared.ErrInvalidID
	}
	if strings.TrimSpace(req.Comment) == "" {
		return nil, fmt.Errorf("%w: comment", shared.ErrRequiredField)
	}
	if req.RemindAt != nil && req.RemindAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: reminder must be in the future", shared.ErrValidation)
	}

	id, err := s.repo.Create(ctx, FollowUp{
		LeadID:   leadID,
		AuthorID: authorID,
		Comment:  strings.TrimSpace(req.Comment),
		RemindAt: req.RemindAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create follow-up: %w", err)
	}

	if req.RemindAt != nil && s.scheduler != nil {
		if err := s.scheduler.EnqueueReminder(ctx, id, leadID, *req.RemindAt); err != nil {
			s.logger.Warn("enqueue follow-up reminder", "error", err, "followup_id", id)
		}
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) MarkDone(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.MarkDone(ctx, id)
}

func (s *Service) ListDue(ctx context.Context, limit int) ([]FollowUp, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListDue(ctx, limit)
}

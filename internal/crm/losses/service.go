package losses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

// LeadCloser flips the lead status once a loss is filed. leads.Service
// satisfies it.
type LeadCloser interface {
	MarkLost(ctx context.Context, id int64) error
}

type Service struct {
	logger *slog.Logger
	repo   Repository
	leads  LeadCloser
}

func NewService(logger *slog.Logger, repo Repository, leads LeadCloser) *Service {
	return &Service{logger: logger, repo: repo, leads: leads}
}

func (s *Service) ListReasons(ctx context.Context, activeOnly bool) ([]Reason, error) {
	return s.repo.ListReasons(ctx, activeOnly)
}

func (s *Service) CreateReason(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: reason name", shared.ErrRequiredField)
	}
	return s.repo.CreateReason(ctx, name)
}

func (s *Service) DeactivateReason(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.DeactivateReason(ctx, id)
}

// Record files a loss against the lead and closes it. A lead can only be
// lost once.
func (s *Service) Record(ctx context.Context, leadID int64, req RecordLossRequest, recordedBy int64) (*Loss, error) {
	if leadID <= 0 {
		return nil, shared.ErrInvalidID
	}
	if req.ReasonID <= 0 {
		return nil, fmt.Errorf("%w: loss reason", shared.ErrRequiredField)
	}
	if existing, err := s.repo.GetForLead(ctx, leadID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: lead already has a loss record", shared.ErrDuplicate)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err := s.repo.Create(ctx, Loss{
		LeadID:     leadID,
		ReasonID:   req.ReasonID,
		Competitor: req.Competitor,
		Note:       req.Note,
		RecordedBy: recordedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("record loss: %w", err)
	}

	if s.leads != nil {
		if err := s.leads.MarkLost(ctx, leadID); err != nil {
			s.logger.Warn("mark lead lost", "error", err, "lead_id", leadID)
		}
	}

	return s.repo.GetForLead(ctx, leadID)
}

func (s *Service) GetForLead(ctx context.Context, leadID int64) (*Loss, error) {
	if leadID <= 0 {
		return nil, shared.ErrInvalidID
	}
	return s.repo.GetForLead(ctx, leadID)
}

// Breakdown returns lost-lead counts per reason for the losses report.
func (s *Service) Breakdown(ctx context.Context) ([]ReasonCount, error) {
	return s.repo.ListByReason(ctx)
}

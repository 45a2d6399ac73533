package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

type Service struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Lead, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create registers a new lead with a generated sequential code. The code is
// allocated and the row inserted in one transaction.
func (s *Service) Create(ctx context.Context, req CreateLeadRequest, createdBy int64) (*Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	var leadID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		code, err := repo.NextCode(ctx, time.Now().Year())
		if err != nil {
			return fmt.Errorf("allocate lead code: %w", err)
		}
		leadID, err = repo.Create(ctx, Lead{
			Code:         code,
			CompanyName:  req.CompanyName,
			ContactName:  req.ContactName,
			Email:        req.Email,
			Phone:        req.Phone,
			VehicleCount: req.VehicleCount,
			Source:       req.Source,
			Status:       StatusNew,
			Notes:        req.Notes,
			CreatedBy:    createdBy,
		})
		if err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead created", "lead_id", leadID, "created_by", createdBy)
	return s.repo.Get(ctx, leadID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateLeadRequest) (*Lead, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.Status != nil && !validStatus(*req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
	}

	fields := map[string]interface{}{}
	if req.CompanyName != nil {
		fields["company_name"] = *req.CompanyName
	}
	if req.ContactName != nil {
		fields["contact_name"] = *req.ContactName
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.VehicleCount != nil {
		fields["vehicle_count"] = *req.VehicleCount
	}
	if req.Source != nil {
		fields["source"] = *req.Source
	}
	if req.Status != nil {
		fields["status"] = string(*req.Status)
	}
	if req.AssignedTo != nil {
		fields["assigned_to"] = *req.AssignedTo
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// MarkQuoted moves a lead to QUOTED when a quote document is finalized
// against it. Leads already won or lost are left alone.
func (s *Service) MarkQuoted(ctx context.Context, id int64) error {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if lead.Status == StatusWon || lead.Status == StatusLost {
		return nil
	}
	return s.repo.Update(ctx, id, map[string]interface{}{"status": string(StatusQuoted)})
}

// MarkLost closes the lead when a loss record is filed against it.
func (s *Service) MarkLost(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Update(ctx, id, map[string]interface{}{"status": string(StatusLost)})
}

func validStatus(s Status) bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

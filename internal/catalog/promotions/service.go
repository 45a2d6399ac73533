package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Promotion, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Promotion, int, error) {
	return s.repo.List(ctx, filters)
}

// ListActiveOn returns the promotions applicable on the given day, with
// their assignments loaded, for the quote form.
func (s *Service) ListActiveOn(ctx context.Context, day time.Time) ([]Promotion, error) {
	return s.repo.ListActiveOn(ctx, day)
}

// FindAssignment looks up the assignment binding a product to a promotion.
// A nil result with no error means the promotion does not cover the product.
func (s *Service) FindAssignment(ctx context.Context, promotionID, productID int64) (*Assignment, error) {
	if promotionID <= 0 || productID <= 0 {
		return nil, nil
	}
	a, err := s.repo.GetAssignment(ctx, promotionID, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// Create stores the promotion header and its assignments atomically.
func (s *Service) Create(ctx context.Context, promo Promotion) (*Promotion, error) {
	if err := s.validate(promo); err != nil {
		return nil, err
	}

	var promoID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, promo)
		if err != nil {
			return fmt.Errorf("create promotion: %w", err)
		}
		promoID = id
		for _, a := range promo.Assignments {
			a.PromotionID = promoID
			if _, err := repo.InsertAssignment(ctx, a); err != nil {
				return fmt.Errorf("insert assignment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, promoID)
}

// Update replaces the header and the full assignment set.
func (s *Service) Update(ctx context.Context, id int64, promo Promotion) (*Promotion, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	if err := s.validate(promo); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, promo); err != nil {
			return fmt.Errorf("update promotion: %w", err)
		}
		if err := repo.DeleteAssignments(ctx, id); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		for _, a := range promo.Assignments {
			a.PromotionID = id
			if _, err := repo.InsertAssignment(ctx, a); err != nil {
				return fmt.Errorf("insert assignment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(promo Promotion) error {
	if strings.TrimSpace(promo.Name) == "" {
		return errors.New("promotion name is required")
	}
	if promo.StartsAt.IsZero() {
		return errors.New("start date is required")
	}
	if !promo.EndsAt.IsZero() && promo.EndsAt.Before(promo.StartsAt) {
		return errors.New("end date must be after start date")
	}
	for _, a := range promo.Assignments {
		if a.ProductID <= 0 {
			return errors.New("assignment product is required")
		}
		switch a.Mode {
		case Mode2x1, Mode3x2:
		case ModePercentage:
			if a.Bonification.IsNegative() || a.Bonification.GreaterThan(hundredPct) {
				return errors.New("bonification must be between 0 and 100")
			}
			if a.MinQuantity < 0 {
				return errors.New("minimum quantity must not be negative")
			}
		default:
			return fmt.Errorf("unknown assignment mode %q", a.Mode)
		}
	}
	return nil
}

package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/catalog/products"
	"github.com/meridian-crm/meridian-crm/internal/catalog/promotions"
	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/crm/leads"
	"github.com/meridian-crm/meridian-crm/internal/pricing"
)

// ProductCatalog resolves product selections on the quote form.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// PromotionCatalog resolves the selected promotion and its per-product
// assignments.
type PromotionCatalog interface {
	Get(ctx context.Context, id int64) (*promotions.Promotion, error)
	FindAssignment(ctx context.Context, promotionID, productID int64) (*promotions.Assignment, error)
}

// LeadDirectory gives the service access to the quoted lead.
type LeadDirectory interface {
	Get(ctx context.Context, id int64) (*leads.Lead, error)
	MarkQuoted(ctx context.Context, id int64) error
}

type Service struct {
	logger     *slog.Logger
	repo       Repository
	products   ProductCatalog
	promotions PromotionCatalog
	leads      LeadDirectory
	validate   *validator.Validate
	clock      func() time.Time
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	productCatalog ProductCatalog,
	promotionCatalog PromotionCatalog,
	leadDirectory LeadDirectory,
) *Service {
	return &Service{
		logger:     logger,
		repo:       repo,
		products:   productCatalog,
		promotions: promotionCatalog,
		leads:      leadDirectory,
		validate:   validator.New(),
		clock:      time.Now,
	}
}

// Preview computes the totals for the request without persisting anything.
// The quote form calls it on every change to refresh the live summary.
func (s *Service) Preview(ctx context.Context, req QuoteRequest) (pricing.QuoteTotals, error) {
	if err := s.validate.Struct(req); err != nil {
		return pricing.QuoteTotals{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	lines, err := s.buildLines(ctx, req)
	if err != nil {
		return pricing.QuoteTotals{}, err
	}
	return pricing.Aggregate(lines), nil
}

// Create computes the totals once and persists inputs and computed figures
// together. The stored quote is the record of truth; Get never recomputes.
func (s *Service) Create(ctx context.Context, req QuoteRequest, createdBy int64) (*Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if _, err := s.leads.Get(ctx, req.LeadID); err != nil {
		return nil, fmt.Errorf("verify lead: %w", err)
	}
	now := s.clock()
	if req.PromotionID != nil {
		promo, err := s.promotions.Get(ctx, *req.PromotionID)
		if err != nil {
			return nil, fmt.Errorf("verify promotion: %w", err)
		}
		if !promo.ActiveOn(now) {
			return nil, fmt.Errorf("%w: promotion %q is not active", shared.ErrValidation, promo.Name)
		}
	}

	quoteLines, err := s.buildLines(ctx, req)
	if err != nil {
		return nil, err
	}
	if quoteLines.Installation.ProductID == 0 && quoteLines.Subscription.ProductID == 0 {
		return nil, fmt.Errorf("%w: quote needs at least a tariff or subscription line", shared.ErrValidation)
	}
	totals := pricing.Aggregate(quoteLines)

	validUntil := now.AddDate(0, 1, 0)
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}
	adhocPct, err := parsePct(req.AdhocPct)
	if err != nil {
		return nil, err
	}

	var quoteID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, now)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}

		quoteID, err = repo.Create(ctx, Quote{
			DocNumber:         docNumber,
			LeadID:            req.LeadID,
			QuoteDate:         now,
			ValidUntil:        validUntil,
			VehicleCount:      req.VehicleCount,
			PromotionID:       req.PromotionID,
			AdhocPct:          adhocPct,
			Notes:             req.Notes,
			TotalServices:     totals.TotalServices,
			TotalAccessories:  totals.TotalAccessories,
			InitialInvestment: totals.InitialInvestment,
			RecurringMonthly:  totals.RecurringMonthly,
			FirstMonthTotal:   totals.FirstMonthTotal,
			GrandTotal:        totals.GrandTotal,
			CreatedBy:         createdBy,
		})
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}

		order := 0
		insert := func(section Section, res pricing.LineResult, input LineInput) error {
			if res.Incomplete {
				return nil
			}
			order++
			_, err := repo.InsertLine(ctx, QuoteLine{
				QuoteID:     quoteID,
				Section:     section,
				ProductID:   res.ProductID,
				ProductName: res.ProductName,
				UnitPrice:   res.UnitPrice,
				Quantity:    res.Quantity,
				AllVehicles: input.AllVehicles,
				RuleLabel:   res.Label,
				Base:        res.Base,
				Discount:    res.Discount,
				Subtotal:    res.Subtotal,
				LineOrder:   order,
			})
			return err
		}

		if err := insert(SectionInstallation, totals.Installation, req.Installation); err != nil {
			return fmt.Errorf("insert installation line: %w", err)
		}
		if err := insert(SectionSubscription, totals.Subscription, req.Subscription); err != nil {
			return fmt.Errorf("insert subscription line: %w", err)
		}
		for i, res := range totals.Services {
			if err := insert(SectionService, res, req.Services[i]); err != nil {
				return fmt.Errorf("insert service line: %w", err)
			}
		}
		for i, res := range totals.Accessories {
			if err := insert(SectionAccessory, res, req.Accessories[i]); err != nil {
				return fmt.Errorf("insert accessory line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.leads.MarkQuoted(ctx, req.LeadID); err != nil {
		s.logger.Warn("mark lead quoted", "error", err, "lead_id", req.LeadID)
	}

	s.logger.Info("quote created", "quote_id", quoteID, "lead_id", req.LeadID, "created_by", createdBy)
	return s.repo.Get(ctx, quoteID)
}

// Get returns the persisted quote with its frozen figures.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]QuoteWithLead, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// buildLines resolves every product selection against the catalog and the
// promotion, producing the pricing input. Rows without a product become
// incomplete placeholders that contribute zero.
func (s *Service) buildLines(ctx context.Context, req QuoteRequest) (pricing.QuoteLines, error) {
	adhocPct, err := parsePct(req.AdhocPct)
	if err != nil {
		return pricing.QuoteLines{}, err
	}

	build := func(input LineInput) (pricing.LineItem, error) {
		if input.ProductID == 0 {
			return pricing.LineItem{}, nil
		}
		product, err := s.products.Get(ctx, input.ProductID)
		if err != nil {
			return pricing.LineItem{}, fmt.Errorf("resolve product %d: %w", input.ProductID, err)
		}

		qty := input.Quantity
		if input.AllVehicles {
			qty = req.VehicleCount
		}
		var assignment *promotions.Assignment
		if req.PromotionID != nil {
			assignment, err = s.promotions.FindAssignment(ctx, *req.PromotionID, input.ProductID)
			if err != nil {
				return pricing.LineItem{}, fmt.Errorf("resolve promotion assignment: %w", err)
			}
		}

		return pricing.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    input.Quantity,
			AllVehicles: input.AllVehicles,
			Rule:        promotions.ResolveRule(assignment, adhocPct, qty),
		}, nil
	}

	lines := pricing.QuoteLines{VehicleCount: req.VehicleCount}
	if lines.Installation, err = build(req.Installation); err != nil {
		return pricing.QuoteLines{}, err
	}
	if lines.Subscription, err = build(req.Subscription); err != nil {
		return pricing.QuoteLines{}, err
	}
	for _, input := range req.Services {
		item, err := build(input)
		if err != nil {
			return pricing.QuoteLines{}, err
		}
		lines.Services = append(lines.Services, item)
	}
	for _, input := range req.Accessories {
		item, err := build(input)
		if err != nil {
			return pricing.QuoteLines{}, err
		}
		lines.Accessories = append(lines.Accessories, item)
	}
	return lines, nil
}

var maxPct = decimal.NewFromInt(100)

// parsePct parses the ad-hoc bonification. Anything outside [0, 100] is a
// validation error: a percentage above 100 would drive subtotals negative.
func parsePct(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ad-hoc bonification %q is not a number", shared.ErrValidation, raw)
	}
	if pct.IsNegative() || pct.GreaterThan(maxPct) {
		return decimal.Zero, fmt.Errorf("%w: ad-hoc bonification must be between 0 and 100", shared.ErrValidation)
	}
	return pct, nil
}

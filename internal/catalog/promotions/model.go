package promotions

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundredPct = decimal.NewFromInt(100)

// Mode selects how an assignment discounts its product. The three modes are
// mutually exclusive; Bonification and MinQuantity only carry meaning in
// percentage mode and may hold stale values otherwise.
type Mode string

const (
	ModePercentage Mode = "percentage"
	Mode2x1        Mode = "2x1"
	Mode3x2        Mode = "3x2"
)

// Modes lists every valid assignment mode.
func Modes() []Mode {
	return []Mode{ModePercentage, Mode2x1, Mode3x2}
}

// Promotion is a named campaign covering one or more products.
type Promotion struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      time.Time    `json:"ends_at"`
	IsActive    bool         `json:"is_active"`
	Assignments []Assignment `json:"assignments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ActiveOn reports whether the promotion can be applied on the given date.
func (p Promotion) ActiveOn(day time.Time) bool {
	if !p.IsActive {
		return false
	}
	if day.Before(p.StartsAt) {
		return false
	}
	if !p.EndsAt.IsZero() && day.After(p.EndsAt) {
		return false
	}
	return true
}

// Assignment binds one product of the catalog to the promotion.
type Assignment struct {
	ID           int64           `json:"id"`
	PromotionID  int64           `json:"promotion_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	Mode         Mode            `json:"mode"`
	Bonification decimal.Decimal `json:"bonification"`
	MinQuantity  int             `json:"min_quantity"`
}

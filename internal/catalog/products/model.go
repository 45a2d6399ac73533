package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies what a product contributes to a quote.
type Category string

const (
	// CategoryTariff is a one-time installation fee line.
	CategoryTariff Category = "tariff"
	// CategorySubscription is the standard recurring monthly line.
	CategorySubscription Category = "subscription"
	// CategoryConvenio is a negotiated recurring line that replaces the
	// standard subscription.
	CategoryConvenio Category = "convenio"
	// CategoryService is an optional recurring service line.
	CategoryService Category = "service"
	// CategoryAccessory is an optional one-time hardware line.
	CategoryAccessory Category = "accessory"
)

// Categories lists every valid category, in form display order.
func Categories() []Category {
	return []Category{
		CategoryTariff,
		CategorySubscription,
		CategoryConvenio,
		CategoryService,
		CategoryAccessory,
	}
}

// Recurring reports whether lines of this category repeat monthly.
func (c Category) Recurring() bool {
	return c == CategorySubscription || c == CategoryConvenio || c == CategoryService
}

// Product is a sellable unit of the catalog.
type Product struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

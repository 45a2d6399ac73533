package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Section identifies where a stored line sits in the quote layout.
type Section string

const (
	SectionInstallation Section = "installation"
	SectionSubscription Section = "subscription"
	SectionService      Section = "service"
	SectionAccessory    Section = "accessory"
)

// Quote is a finalized pricing document for a lead. Computed figures are
// persisted at creation time and never recomputed on read.
type Quote struct {
	ID           int64      `json:"id"`
	DocNumber    string     `json:"doc_number"`
	LeadID       int64      `json:"lead_id"`
	LeadName     string     `json:"lead_name,omitempty"`
	QuoteDate    time.Time  `json:"quote_date"`
	ValidUntil   time.Time  `json:"valid_until"`
	VehicleCount int        `json:"vehicle_count"`
	PromotionID  *int64     `json:"promotion_id,omitempty"`
	AdhocPct     decimal.Decimal `json:"adhoc_pct"`
	Notes        *string    `json:"notes,omitempty"`

	TotalServices     decimal.Decimal `json:"total_services"`
	TotalAccessories  decimal.Decimal `json:"total_accessories"`
	InitialInvestment decimal.Decimal `json:"initial_investment"`
	RecurringMonthly  decimal.Decimal `json:"recurring_monthly"`
	FirstMonthTotal   decimal.Decimal `json:"first_month_total"`
	GrandTotal        decimal.Decimal `json:"grand_total"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lines []QuoteLine `json:"lines,omitempty"`
}

// QuoteLine is one stored row with its computed breakdown frozen in.
type QuoteLine struct {
	ID          int64           `json:"id"`
	QuoteID     int64           `json:"quote_id"`
	Section     Section         `json:"section"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	AllVehicles bool            `json:"all_vehicles"`
	RuleLabel   string          `json:"rule_label"`
	Base        decimal.Decimal `json:"base"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	LineOrder   int             `json:"line_order"`
}

// QuoteWithLead is the list-view projection.
type QuoteWithLead struct {
	Quote
	LeadCode    string `json:"lead_code"`
	CompanyName string `json:"company_name"`
}

package quotes

import "time"

// LineInput is a single product selection on the quote form. Either
// Quantity is given or AllVehicles ties the line to the vehicle count.
type LineInput struct {
	ProductID   int64 `json:"product_id"`
	Quantity    int   `json:"quantity" validate:"gte=0"`
	AllVehicles bool  `json:"all_vehicles"`
}

// QuoteRequest carries everything needed to compute a quote. Preview and
// Create take the identical shape so the saved figures always match the
// last preview shown.
type QuoteRequest struct {
	LeadID       int64       `json:"lead_id" validate:"required,gt=0"`
	VehicleCount int         `json:"vehicle_count" validate:"required,gt=0"`
	PromotionID  *int64      `json:"promotion_id,omitempty"`
	AdhocPct     string      `json:"adhoc_pct,omitempty"`
	ValidUntil   *time.Time  `json:"valid_until,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Installation LineInput   `json:"installation"`
	Subscription LineInput   `json:"subscription"`
	Services     []LineInput `json:"services,omitempty"`
	Accessories  []LineInput `json:"accessories,omitempty"`
}

type ListQuotesRequest struct {
	LeadID *int64  `json:"lead_id,omitempty"`
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}

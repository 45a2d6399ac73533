package losses

import "time"

// Reason is a catalog entry describing why leads are lost
// (price, competitor, no response, project cancelled, ...).
type Reason struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Loss records why a specific lead was lost.
type Loss struct {
	ID         int64     `json:"id"`
	LeadID     int64     `json:"lead_id"`
	ReasonID   int64     `json:"reason_id"`
	ReasonName string    `json:"reason_name,omitempty"`
	Competitor *string   `json:"competitor,omitempty"`
	Note       *string   `json:"note,omitempty"`
	RecordedBy int64     `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type RecordLossRequest struct {
	ReasonID   int64   `json:"reason_id" validate:"required,gt=0"`
	Competitor *string `json:"competitor,omitempty" validate:"omitempty,max=200"`
	Note       *string `json:"note,omitempty"`
}

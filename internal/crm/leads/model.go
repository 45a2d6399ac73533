package leads

import "time"

type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQuoted    Status = "QUOTED"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
)

// Statuses lists every lead status in pipeline order.
func Statuses() []Status {
	return []Status{StatusNew, StatusContacted, StatusQuoted, StatusWon, StatusLost}
}

type Lead struct {
	ID           int64     `json:"id" db:"id"`
	Code         string    `json:"code" db:"code"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	ContactName  string    `json:"contact_name" db:"contact_name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	VehicleCount int       `json:"vehicle_count" db:"vehicle_count"`
	Source       *string   `json:"source,omitempty" db:"source"`
	Status       Status    `json:"status" db:"status"`
	AssignedTo   *int64    `json:"assigned_to,omitempty" db:"assigned_to"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

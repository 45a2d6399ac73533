package leads

type CreateLeadRequest struct {
	CompanyName  string  `json:"company_name" validate:"required,max=200"`
	ContactName  string  `json:"contact_name" validate:"required,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	VehicleCount int     `json:"vehicle_count" validate:"required,gt=0"`
	Source       *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	CompanyName  *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	ContactName  *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	VehicleCount *int    `json:"vehicle_count,omitempty" validate:"omitempty,gt=0"`
	Source       *string `json:"source,omitempty"`
	Status       *Status `json:"status,omitempty"`
	AssignedTo   *int64  `json:"assigned_to,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type ListLeadsRequest struct {
	Status     *Status `json:"status,omitempty"`
	AssignedTo *int64  `json:"assigned_to,omitempty"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}

package shared

// ListFilters represents standard list page filters for catalog screens.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	// Entity specific filters
	Category  string
	ProductID *int64
}

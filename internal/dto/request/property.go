package request

// SearchPropertiesRequest is built from query parameters
type SearchPropertiesRequest struct {
	Location string   `validate:"omitempty,max=120"`
	MinPrice *float64 `validate:"omitempty,gte=0"`
	MaxPrice *float64 `validate:"omitempty,gte=0"`
	Bedrooms *int     `validate:"omitempty,gte=0"`
	Guests   *int     `validate:"omitempty,gte=1"`
	CheckIn  string   `validate:"omitempty,datetime=2006-01-02"`
	CheckOut string   `validate:"omitempty,datetime=2006-01-02"`
	PaginatedRequest
}

type AvailabilityRequest struct {
	CheckIn  string `validate:"required,datetime=2006-01-02"`
	CheckOut string `validate:"required,datetime=2006-01-02"`
	Guests   *int   `validate:"omitempty,gte=1"`
}

type PricingRequest struct {
	CheckIn   string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut  string `json:"check_out" validate:"required,datetime=2006-01-02"`
	PromoCode string `json:"promo_code,omitempty" validate:"omitempty,max=32"`
}

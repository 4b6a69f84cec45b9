package request

type CreateBookingRequest struct {
	PropertyID      string  `json:"property_id" validate:"required,uuid"`
	GuestName       string  `json:"guest_name" validate:"required,min=2,max=120"`
	GuestEmail      string  `json:"guest_email" validate:"required,email"`
	GuestPhone      *string `json:"guest_phone,omitempty" validate:"omitempty,max=32"`
	CheckIn         string  `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string  `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests          int     `json:"guests" validate:"required,gte=1"`
	PromoCode       string  `json:"promo_code,omitempty" validate:"omitempty,max=32"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
}

// UpdateBookingStatusRequest is the external agent's status change.
// Agents may only cancel; confirmation comes from the host or payment.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=cancelled"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CancelBookingRequest is the host cancellation. A nil RefundAmount refunds
// the full amount when the booking was paid.
type CancelBookingRequest struct {
	RefundAmount *float64 `json:"refund_amount,omitempty" validate:"omitempty,gte=0"`
	Reason       string   `json:"reason,omitempty" validate:"omitempty,max=500"`
}

package response

import (
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/utils"
)

type BookingResponse struct {
	ID               string                  `json:"id"`
	PropertyID       string                  `json:"property_id"`
	HostID           string                  `json:"host_id"`
	GuestName        string                  `json:"guest_name"`
	GuestEmail       string                  `json:"guest_email"`
	GuestPhone       *string                 `json:"guest_phone,omitempty"`
	CheckIn          string                  `json:"check_in"`
	CheckOut         string                  `json:"check_out"`
	Nights           int                     `json:"nights"`
	Guests           int                     `json:"guests"`
	TotalAmount      float64                 `json:"total_amount"`
	Status           entity.BookingStatus    `json:"status"`
	PaymentStatus    entity.PaymentStatus    `json:"payment_status"`
	HostPayoutStatus entity.HostPayoutStatus `json:"host_payout_status"`
	RefundAmount     *float64                `json:"refund_amount,omitempty"`
	SpecialRequests  *string                 `json:"special_requests,omitempty"`
	ConfirmedAt      *time.Time              `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

type CreateBookingResponse struct {
	BookingID string               `json:"booking_id"`
	Status    entity.BookingStatus `json:"status"`
	Total     float64              `json:"total_amount"`
	NextSteps []string             `json:"next_steps"`
}

type AutoApproveResponse struct {
	BookingID    string               `json:"booking_id"`
	Status       entity.BookingStatus `json:"status"`
	AutoApproved bool                 `json:"auto_approved"`
	Reason       string               `json:"reason"`
}

type PaymentIntentResponse struct {
	BookingID       string  `json:"booking_id"`
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		PropertyID:       b.PropertyID.String(),
		HostID:           b.HostID.String(),
		GuestName:        b.GuestName,
		GuestEmail:       b.GuestEmail,
		GuestPhone:       b.GuestPhone,
		CheckIn:          utils.FormatDate(b.CheckIn),
		CheckOut:         utils.FormatDate(b.CheckOut),
		Nights:           b.Nights(),
		Guests:           b.Guests,
		TotalAmount:      b.TotalAmount,
		Status:           b.Status,
		PaymentStatus:    b.PaymentStatus,
		HostPayoutStatus: b.HostPayoutStatus,
		RefundAmount:     b.RefundAmount,
		SpecialRequests:  b.SpecialRequests,
		ConfirmedAt:      b.ConfirmedAt,
		CancelledAt:      b.CancelledAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

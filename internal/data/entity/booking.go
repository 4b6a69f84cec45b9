package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// bookingTransitions lists the states reachable from each state.
// Nothing goes back to pending, and completed/cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Occupying reports whether a booking in this state blocks its nights
func (s BookingStatus) Occupying() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type HostPayoutStatus string

const (
	HostPayoutStatusNone       HostPayoutStatus = "none"
	HostPayoutStatusProcessing HostPayoutStatus = "processing"
	HostPayoutStatusPaid       HostPayoutStatus = "paid"
	HostPayoutStatusFailed     HostPayoutStatus = "failed"
)

type Booking struct {
	BaseNoDelete
	PropertyID        uuid.UUID        `db:"property_id"`
	HostID            uuid.UUID        `db:"host_id"`
	ExternalServiceID *uuid.UUID       `db:"external_service_id"`
	GuestName         string           `db:"guest_name"`
	GuestEmail        string           `db:"guest_email"`
	GuestPhone        *string          `db:"guest_phone"`
	CheckIn           time.Time        `db:"check_in"`
	CheckOut          time.Time        `db:"check_out"`
	Guests            int              `db:"guests"`
	TotalAmount       float64          `db:"total_amount"`
	Status            BookingStatus    `db:"status"`
	PaymentStatus     PaymentStatus    `db:"payment_status"`
	PaymentIntentID   *string          `db:"payment_intent_id"`
	RefundAmount      *float64         `db:"refund_amount"`
	HostPayoutStatus  HostPayoutStatus `db:"host_payout_status"`
	SpecialRequests   *string          `db:"special_requests"`
	ConfirmedAt       *time.Time       `db:"confirmed_at"`
	CancelledAt       *time.Time       `db:"cancelled_at"`
}

// Nights is always derived from the dates, never stored
func (b *Booking) Nights() int {
	return NightsBetween(b.CheckIn, b.CheckOut)
}

// NightsBetween is the calendar-day difference between two dates
func NightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

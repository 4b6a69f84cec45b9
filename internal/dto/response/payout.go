package response

import (
	"time"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
)

type PayoutResponse struct {
	ID                string              `json:"id"`
	BookingID         string              `json:"booking_id"`
	Amount            float64             `json:"amount"`
	PlatformFee       float64             `json:"platform_fee"`
	Currency          string              `json:"currency"`
	Status            entity.PayoutStatus `json:"status"`
	FailureMessage    *string             `json:"failure_message,omitempty"`
	TransferReference *string             `json:"external_transfer_reference,omitempty"`
	InitiatedAt       time.Time           `json:"initiated_at"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
}

type PayoutEligibilityResponse struct {
	BookingID string `json:"booking_id"`
	calc.PayoutEligibility
	Split calc.PayoutSplit `json:"split"`
}

type PayoutSweepResult struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type AutoApproveSettingsResponse struct {
	AutoApproveBookings    bool    `json:"auto_approve_bookings"`
	AutoApproveAmountLimit float64 `json:"auto_approve_amount_limit"`
}

func PayoutToResponse(p *entity.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                p.ID.String(),
		BookingID:         p.BookingID.String(),
		Amount:            p.Amount,
		PlatformFee:       p.PlatformFee,
		Currency:          p.Currency,
		Status:            p.Status,
		FailureMessage:    p.FailureMessage,
		TransferReference: p.TransferReference,
		InitiatedAt:       p.InitiatedAt,
		CompletedAt:       p.CompletedAt,
	}
}

func AutoApproveSettingsToResponse(h *entity.Host) AutoApproveSettingsResponse {
	return AutoApproveSettingsResponse{
		AutoApproveBookings:    h.AutoApproveBookings,
		AutoApproveAmountLimit: h.AutoApproveAmountLimit,
	}
}

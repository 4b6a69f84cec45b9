package entity

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusInTransit  PayoutStatus = "in_transit"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

type Payout struct {
	BaseNoDelete
	BookingID         uuid.UUID    `db:"booking_id"`
	UserID            uuid.UUID    `db:"user_id"`
	Amount            float64      `db:"amount"`
	PlatformFee       float64      `db:"platform_fee"`
	Currency          string       `db:"currency"`
	Status            PayoutStatus `db:"status"`
	FailureMessage    *string      `db:"failure_message"`
	TransferReference *string      `db:"external_transfer_reference"`
	InitiatedAt       time.Time    `db:"initiated_at"`
	CompletedAt       *time.Time   `db:"completed_at"`
}

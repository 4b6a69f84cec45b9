package entity

import "time"

// PaymentEvent logs an inbound payment-processor callback. A row with
// Processed=true means its side effects were already applied.
type PaymentEvent struct {
	BaseSimple
	ExternalEventID string     `db:"external_event_id"`
	EventType       string     `db:"event_type"`
	Payload         []byte     `db:"payload"`
	Processed       bool       `db:"processed"`
	ProcessedAt     *time.Time `db:"processed_at"`
	Error           *string    `db:"error"`
}

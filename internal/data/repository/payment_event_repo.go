package repository

import (
	"context"
	"fmt"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentEventRepository interface {
	// Record stores the event unless its external id was seen before, and
	// returns the stored row either way.
	Record(ctx context.Context, event *entity.PaymentEvent) (*entity.PaymentEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, errMsg *string) error
}

type paymentEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentEventRepository(db database.PgxIface, log *zap.Logger) PaymentEventRepository {
	return &paymentEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_event")),
	}
}

func (r *paymentEventRepository) Record(ctx context.Context, event *entity.PaymentEvent) (*entity.PaymentEvent, error) {
	query := `
		INSERT INTO payment_events (id, external_event_id, event_type, payload, processed, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		ON CONFLICT (external_event_id) DO UPDATE SET external_event_id = EXCLUDED.external_event_id
		RETURNING id, external_event_id, event_type, payload, processed, processed_at, error, created_at
	`

	var stored entity.PaymentEvent
	err := r.db.QueryRow(ctx, query,
		event.ID,
		event.ExternalEventID,
		event.EventType,
		event.Payload,
		event.CreatedAt,
	).Scan(
		&stored.ID,
		&stored.ExternalEventID,
		&stored.EventType,
		&stored.Payload,
		&stored.Processed,
		&stored.ProcessedAt,
		&stored.Error,
		&stored.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record payment event",
			zap.Error(err),
			zap.String("external_event_id", event.ExternalEventID),
		)
		return nil, fmt.Errorf("record payment event %s: %w", event.ExternalEventID, err)
	}

	return &stored, nil
}

func (r *paymentEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, errMsg *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payment_events
		SET processed = TRUE, processed_at = NOW(), error = $2
		WHERE id = $1
	`, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark payment event %s processed: %w", id, err)
	}
	return nil
}

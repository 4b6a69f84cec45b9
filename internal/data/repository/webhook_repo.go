package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type WebhookFilter struct {
	ExternalServiceID *uuid.UUID
	ActiveOnly        bool
	AgentName         string
	Limit             int
	Offset            int
}

// WebhookRepository is the subscription store. Health counters are updated
// with single-statement updates so concurrent dispatches stay consistent.
type WebhookRepository interface {
	Create(ctx context.Context, sub *entity.WebhookSubscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error)
	List(ctx context.Context, filter WebhookFilter) ([]*entity.WebhookSubscription, int64, error)
	// Update writes the editable fields and refreshes sub's is_active and
	// failed_attempts from the stored row.
	Update(ctx context.Context, sub *entity.WebhookSubscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Toggle flips is_active and always resets the failure counter.
	Toggle(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error)

	ListActiveForEvent(ctx context.Context, event entity.WebhookEvent) ([]*entity.WebhookSubscription, error)
	RecordSuccess(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID) (bool, error)
}

type webhookRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWebhookRepository(db database.PgxIface, log *zap.Logger) WebhookRepository {
	return &webhookRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook")),
	}
}

const webhookColumns = `id, external_service_id, agent_name, webhook_url, events, secret, is_active,
	failed_attempts, max_failed_attempts, last_successful_call, created_at, updated_at`

func scanWebhook(row pgx.Row) (*entity.WebhookSubscription, error) {
	var (
		s      entity.WebhookSubscription
		events []string
	)
	err := row.Scan(
		&s.ID,
		&s.ExternalServiceID,
		&s.AgentName,
		&s.WebhookURL,
		&events,
		&s.Secret,
		&s.IsActive,
		&s.FailedAttempts,
		&s.MaxFailedAttempts,
		&s.LastSuccessfulCall,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Events = make([]entity.WebhookEvent, len(events))
	for i, e := range events {
		s.Events[i] = entity.WebhookEvent(e)
	}
	return &s, nil
}

func eventNames(events []entity.WebhookEvent) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	return names
}

func collectWebhooks(rows pgx.Rows) ([]*entity.WebhookSubscription, error) {
	defer rows.Close()

	var subs []*entity.WebhookSubscription
	for rows.Next() {
		s, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *webhookRepository) Create(ctx context.Context, sub *entity.WebhookSubscription) error {
	query := `
		INSERT INTO webhook_subscriptions (id, external_service_id, agent_name, webhook_url, events, secret,
		                                   is_active, failed_attempts, max_failed_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.ExternalServiceID,
		sub.AgentName,
		sub.WebhookURL,
		eventNames(sub.Events),
		sub.Secret,
		sub.IsActive,
		sub.FailedAttempts,
		sub.MaxFailedAttempts,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicateWebhookURL
		}
		r.log.Error("Failed to create webhook subscription",
			zap.Error(err),
			zap.String("agent_name", sub.AgentName),
		)
		return fmt.Errorf("create webhook subscription: %w", err)
	}

	return nil
}

func (r *webhookRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhook_subscriptions WHERE id = $1`

	sub, err := scanWebhook(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find webhook subscription",
			zap.Error(err),
			zap.String("subscription_id", id.String()),
		)
		return nil, fmt.Errorf("find webhook subscription %s: %w", id, err)
	}

	return sub, nil
}

func (r *webhookRepository) List(ctx context.Context, filter WebhookFilter) ([]*entity.WebhookSubscription, int64, error) {
	conds := []string{"TRUE"}
	var args []any

	if filter.ExternalServiceID != nil {
		args = append(args, *filter.ExternalServiceID)
		conds = append(conds, fmt.Sprintf("external_service_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if name := strings.TrimSpace(filter.AgentName); name != "" {
		args = append(args, "%"+name+"%")
		conds = append(conds, fmt.Sprintf("agent_name ILIKE $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM webhook_subscriptions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhook subscriptions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM webhook_subscriptions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		webhookColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list webhook subscriptions", zap.Error(err))
		return nil, 0, fmt.Errorf("list webhook subscriptions: %w", err)
	}

	subs, err := collectWebhooks(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan webhook subscriptions: %w", err)
	}

	return subs, total, nil
}

func (r *webhookRepository) Update(ctx context.Context, sub *entity.WebhookSubscription) error {
	// a lowered threshold deactivates on the spot, as RecordFailure would
	query := `
		UPDATE webhook_subscriptions
		SET agent_name = $2, webhook_url = $3, events = $4, max_failed_attempts = $5, updated_at = $6,
		    is_active = is_active AND failed_attempts < $5
		WHERE id = $1
		RETURNING is_active, failed_attempts
	`

	err := r.db.QueryRow(ctx, query,
		sub.ID,
		sub.AgentName,
		sub.WebhookURL,
		eventNames(sub.Events),
		sub.MaxFailedAttempts,
		sub.UpdatedAt,
	).Scan(&sub.IsActive, &sub.FailedAttempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicateWebhookURL
		}
		return fmt.Errorf("update webhook subscription %s: %w", sub.ID, err)
	}

	return nil
}

func (r *webhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete webhook subscription %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *webhookRepository) Toggle(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error) {
	query := `
		UPDATE webhook_subscriptions
		SET is_active = NOT is_active, failed_attempts = 0, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + webhookColumns

	sub, err := scanWebhook(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle webhook subscription %s: %w", id, err)
	}

	return sub, nil
}

func (r *webhookRepository) ListActiveForEvent(ctx context.Context, event entity.WebhookEvent) ([]*entity.WebhookSubscription, error) {
	query := `SELECT ` + webhookColumns + `
		FROM webhook_subscriptions
		WHERE is_active = TRUE AND $1 = ANY(events)`

	rows, err := r.db.Query(ctx, query, string(event))
	if err != nil {
		r.log.Error("Failed to list subscriptions for event",
			zap.Error(err),
			zap.String("event_type", string(event)),
		)
		return nil, fmt.Errorf("list subscriptions for %s: %w", event, err)
	}

	return collectWebhooks(rows)
}

func (r *webhookRepository) RecordSuccess(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE webhook_subscriptions
		SET failed_attempts = 0, last_successful_call = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("record webhook success %s: %w", id, err)
	}
	return nil
}

// RecordFailure increments the counter and deactivates in the same statement
// once the threshold is reached. The returned bool is true only for the
// failure that crossed it.
func (r *webhookRepository) RecordFailure(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE webhook_subscriptions s
		SET failed_attempts = s.failed_attempts + 1,
		    is_active = s.is_active AND s.failed_attempts + 1 < s.max_failed_attempts,
		    updated_at = NOW()
		FROM (SELECT id, is_active FROM webhook_subscriptions WHERE id = $1 FOR UPDATE) prev
		WHERE s.id = prev.id
		RETURNING prev.is_active AND NOT s.is_active
	`

	var deactivated bool
	err := r.db.QueryRow(ctx, query, id).Scan(&deactivated)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("record webhook failure %s: %w", id, err)
	}

	return deactivated, nil
}

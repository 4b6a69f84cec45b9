package repository

import (
	"context"
	"errors"
	"fmt"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Host, error)
	UpdateAutoApprove(ctx context.Context, id uuid.UUID, enabled bool, limit float64) (*entity.Host, error)
	// UpdateStripeAccount syncs payout capability from the processor's account record.
	UpdateStripeAccount(ctx context.Context, accountID string, verified, payoutsEnabled bool) error
}

type hostRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHostRepository(db database.PgxIface, log *zap.Logger) HostRepository {
	return &hostRepository{
		db:  db,
		log: log.With(zap.String("repository", "host")),
	}
}

const hostColumns = `id, name, email, phone, role, is_active, stripe_account_id, stripe_account_verified,
	payouts_enabled, auto_approve_bookings, auto_approve_amount_limit, created_at, updated_at, deleted_at`

func scanHost(row pgx.Row) (*entity.Host, error) {
	var h entity.Host
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Email,
		&h.Phone,
		&h.Role,
		&h.IsActive,
		&h.StripeAccountID,
		&h.StripeAccountVerified,
		&h.PayoutsEnabled,
		&h.AutoApproveBookings,
		&h.AutoApproveAmountLimit,
		&h.CreatedAt,
		&h.UpdatedAt,
		&h.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hostRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Host, error) {
	query := `SELECT ` + hostColumns + ` FROM hosts WHERE id = $1 AND deleted_at IS NULL`

	host, err := scanHost(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find host by ID",
			zap.Error(err),
			zap.String("host_id", id.String()),
		)
		return nil, fmt.Errorf("find host by ID %s: %w", id, err)
	}

	return host, nil
}

func (r *hostRepository) UpdateAutoApprove(ctx context.Context, id uuid.UUID, enabled bool, limit float64) (*entity.Host, error) {
	query := `
		UPDATE hosts
		SET auto_approve_bookings = $2, auto_approve_amount_limit = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + hostColumns

	host, err := scanHost(r.db.QueryRow(ctx, query, id, enabled, limit))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.Error("Failed to update auto-approve settings",
			zap.Error(err),
			zap.String("host_id", id.String()),
		)
		return nil, fmt.Errorf("update auto-approve for host %s: %w", id, err)
	}

	return host, nil
}

func (r *hostRepository) UpdateStripeAccount(ctx context.Context, accountID string, verified, payoutsEnabled bool) error {
	query := `
		UPDATE hosts
		SET stripe_account_verified = $2, payouts_enabled = $3, updated_at = NOW()
		WHERE stripe_account_id = $1
	`

	tag, err := r.db.Exec(ctx, query, accountID, verified, payoutsEnabled)
	if err != nil {
		return fmt.Errorf("update stripe account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

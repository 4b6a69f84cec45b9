package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PayoutRepository interface {
	Create(ctx context.Context, payout *entity.Payout) error
	FindByTransferReference(ctx context.Context, ref string) (*entity.Payout, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, ref string) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
}

type payoutRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPayoutRepository(db database.PgxIface, log *zap.Logger) PayoutRepository {
	return &payoutRepository{
		db:  db,
		log: log.With(zap.String("repository", "payout")),
	}
}

const payoutColumns = `id, booking_id, user_id, amount, platform_fee, currency, status, failure_message,
	external_transfer_reference, initiated_at, completed_at, created_at, updated_at`

func scanPayout(row pgx.Row) (*entity.Payout, error) {
	var p entity.Payout
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.UserID,
		&p.Amount,
		&p.PlatformFee,
		&p.Currency,
		&p.Status,
		&p.FailureMessage,
		&p.TransferReference,
		&p.InitiatedAt,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *payoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	query := `
		INSERT INTO payouts (id, booking_id, user_id, amount, platform_fee, currency, status,
		                     initiated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		payout.ID,
		payout.BookingID,
		payout.UserID,
		payout.Amount,
		payout.PlatformFee,
		payout.Currency,
		payout.Status,
		payout.InitiatedAt,
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		// partial unique index: one live payout per booking
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrPayoutAlreadyInitiated
		}
		r.log.Error("Failed to create payout",
			zap.Error(err),
			zap.String("booking_id", payout.BookingID.String()),
		)
		return fmt.Errorf("create payout for booking %s: %w", payout.BookingID, err)
	}

	return nil
}

func (r *payoutRepository) FindByTransferReference(ctx context.Context, ref string) (*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE external_transfer_reference = $1`

	payout, err := scanPayout(r.db.QueryRow(ctx, query, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payout by transfer %s: %w", ref, err)
	}

	return payout, nil
}

func (r *payoutRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + `
		FROM payouts
		WHERE user_id = $1
		ORDER BY initiated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list payouts",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list payouts for %s: %w", userID, err)
	}
	defer rows.Close()

	var payouts []*entity.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}

	return payouts, rows.Err()
}

func (r *payoutRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payouts for %s: %w", userID, err)
	}
	return count, nil
}

func (r *payoutRepository) MarkProcessing(ctx context.Context, id uuid.UUID, ref string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payouts
		SET status = 'processing', external_transfer_reference = $2, updated_at = NOW()
		WHERE id = $1
	`, id, ref)
	if err != nil {
		return fmt.Errorf("mark payout %s processing: %w", id, err)
	}
	return nil
}

func (r *payoutRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payouts
		SET status = 'failed', failure_message = $2, updated_at = NOW()
		WHERE id = $1
	`, id, message)
	if err != nil {
		return fmt.Errorf("mark payout %s failed: %w", id, err)
	}
	return nil
}

func (r *payoutRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payouts
		SET status = 'paid', completed_at = $2, updated_at = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark payout %s paid: %w", id, err)
	}
	return nil
}

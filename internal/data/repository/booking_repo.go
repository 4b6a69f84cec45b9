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

type BookingRepository interface {
	// CreateIfAvailable inserts the booking only if no pending or confirmed
	// booking of the same property overlaps it. Returns ErrBookingConflict otherwise.
	CreateIfAvailable(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Booking, error)
	FindOccupying(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Booking, error)

	// Transition moves the booking from one status to another in a single
	// guarded update. Returns nil when the booking was not in `from`.
	Transition(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, at time.Time) (*entity.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, paymentIntentID *string) error
	RecordRefund(ctx context.Context, id uuid.UUID, amount float64, status entity.PaymentStatus) error

	// ClaimPayout flips host_payout_status to processing if the booking is
	// paid and has no payout in flight or completed.
	ClaimPayout(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateHostPayoutStatus(ctx context.Context, id uuid.UUID, status entity.HostPayoutStatus) error
	FindPayoutCandidates(ctx context.Context, checkOutOnOrBefore time.Time, limit int) ([]*entity.Booking, error)
	CompletePast(ctx context.Context, today time.Time) (int64, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, property_id, host_id, external_service_id, guest_name, guest_email, guest_phone,
	check_in, check_out, guests, total_amount, status, payment_status, payment_intent_id, refund_amount,
	host_payout_status, special_requests, confirmed_at, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.PropertyID,
		&b.HostID,
		&b.ExternalServiceID,
		&b.GuestName,
		&b.GuestEmail,
		&b.GuestPhone,
		&b.CheckIn,
		&b.CheckOut,
		&b.Guests,
		&b.TotalAmount,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentIntentID,
		&b.RefundAmount,
		&b.HostPayoutStatus,
		&b.SpecialRequests,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) CreateIfAvailable(ctx context.Context, booking *entity.Booking) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// serialise concurrent bookings of the same property
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM properties WHERE id = $1 FOR UPDATE`, booking.PropertyID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock property %s: %w", booking.PropertyID, err)
		}

		var overlapping bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE property_id = $1
				  AND status IN ('pending', 'confirmed')
				  AND check_in < $3 AND check_out > $2
			)
		`, booking.PropertyID, booking.CheckIn, booking.CheckOut).Scan(&overlapping)
		if err != nil {
			return fmt.Errorf("check overlapping bookings: %w", err)
		}
		if overlapping {
			return ErrBookingConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO bookings (id, property_id, host_id, external_service_id, guest_name, guest_email, guest_phone,
			                      check_in, check_out, guests, total_amount, status, payment_status,
			                      host_payout_status, special_requests, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			booking.ID,
			booking.PropertyID,
			booking.HostID,
			booking.ExternalServiceID,
			booking.GuestName,
			booking.GuestEmail,
			booking.GuestPhone,
			booking.CheckIn,
			booking.CheckOut,
			booking.Guests,
			booking.TotalAmount,
			booking.Status,
			booking.PaymentStatus,
			booking.HostPayoutStatus,
			booking.SpecialRequests,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		return err
	})
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBookingConflict) {
		return err
	}
	// the exclusion constraint can fire on insert or on commit
	if pgErrorCode(err) == pgExclusionViolation {
		return ErrBookingConflict
	}

	r.log.Error("Failed to create booking",
		zap.Error(err),
		zap.String("property_id", booking.PropertyID.String()),
	)
	return fmt.Errorf("create booking %s: %w", booking.ID, err)
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, paymentIntentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by payment intent %s: %w", paymentIntentID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindOccupying(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE property_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND check_in < $3 AND check_out > $2
		ORDER BY check_in`

	rows, err := r.db.Query(ctx, query, propertyID, checkIn, checkOut)
	if err != nil {
		r.log.Error("Failed to query occupying bookings",
			zap.Error(err),
			zap.String("property_id", propertyID.String()),
		)
		return nil, fmt.Errorf("find occupying bookings: %w", err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) Transition(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, at time.Time) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3,
		    confirmed_at = CASE WHEN $3 = 'confirmed' THEN $4 ELSE confirmed_at END,
		    cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END,
		    updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, from, to, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to transition booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("transition booking %s to %s: %w", id, to, err)
	}

	return booking, nil
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, paymentIntentID *string) error {
	query := `
		UPDATE bookings
		SET payment_status = $2,
		    payment_intent_id = COALESCE($3, payment_intent_id),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status, paymentIntentID)
	if err != nil {
		return fmt.Errorf("update payment status of booking %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *bookingRepository) RecordRefund(ctx context.Context, id uuid.UUID, amount float64, status entity.PaymentStatus) error {
	// refund can never exceed what was charged
	query := `
		UPDATE bookings
		SET refund_amount = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND $2 <= total_amount
	`

	tag, err := r.db.Exec(ctx, query, id, amount, status)
	if err != nil {
		return fmt.Errorf("record refund for booking %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *bookingRepository) ClaimPayout(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET host_payout_status = 'processing', updated_at = NOW()
		WHERE id = $1
		  AND payment_status = 'succeeded'
		  AND host_payout_status IN ('none', 'failed')
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("claim payout for booking %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *bookingRepository) UpdateHostPayoutStatus(ctx context.Context, id uuid.UUID, status entity.HostPayoutStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE bookings SET host_payout_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update host payout status of booking %s: %w", id, err)
	}
	return nil
}

func (r *bookingRepository) FindPayoutCandidates(ctx context.Context, checkOutOnOrBefore time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE payment_status = 'succeeded'
		  AND host_payout_status IN ('none', 'failed')
		  AND status IN ('confirmed', 'completed')
		  AND check_out <= $1
		ORDER BY check_out
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, checkOutOnOrBefore, limit)
	if err != nil {
		r.log.Error("Failed to query payout candidates", zap.Error(err))
		return nil, fmt.Errorf("find payout candidates: %w", err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) CompletePast(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'confirmed'
		  AND payment_status = 'succeeded'
		  AND check_out < $1
	`

	tag, err := r.db.Exec(ctx, query, today)
	if err != nil {
		r.log.Error("Failed to complete past bookings", zap.Error(err))
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}

	return tag.RowsAffected(), nil
}

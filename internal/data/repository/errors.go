package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrBookingConflict        = errors.New("dates overlap an existing booking")
	ErrDuplicateWebhookURL    = errors.New("webhook url already registered")
	ErrPayoutAlreadyInitiated = errors.New("payout already initiated for booking")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

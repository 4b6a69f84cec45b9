package repository

import (
	"krib-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Host            HostRepository
	Session         SessionRepository
	ExternalService ExternalServiceRepository
	Property        PropertyRepository
	Booking         BookingRepository
	Webhook         WebhookRepository
	Payout          PayoutRepository
	PaymentEvent    PaymentEventRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Host:            NewHostRepository(db, log),
		Session:         NewSessionRepository(db, log),
		ExternalService: NewExternalServiceRepository(db, log),
		Property:        NewPropertyRepository(db, log),
		Booking:         NewBookingRepository(db, log),
		Webhook:         NewWebhookRepository(db, log),
		Payout:          NewPayoutRepository(db, log),
		PaymentEvent:    NewPaymentEventRepository(db, log),
	}
}

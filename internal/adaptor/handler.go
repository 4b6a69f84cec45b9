package adaptor

import (
	"krib-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Property     *PropertyHandler
	Booking      *BookingHandler
	Webhook      *WebhookHandler
	Host         *HostHandler
	Payout       *PayoutHandler
	PaymentEvent *PaymentEventHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Property:     NewPropertyHandler(service.Property, log),
		Booking:      NewBookingHandler(service.Booking, log),
		Webhook:      NewWebhookHandler(service.Webhook, log),
		Host:         NewHostHandler(service.Booking, service.Host, log),
		Payout:       NewPayoutHandler(service.Payout, log),
		PaymentEvent: NewPaymentEventHandler(service.PaymentEvent, log),
	}
}

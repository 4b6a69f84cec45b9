package adaptor

import (
	"io"
	"net/http"

	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxPaymentEventBytes = 1 << 16

type PaymentEventHandler struct {
	service usecase.PaymentEventService
	log     *zap.Logger
}

func NewPaymentEventHandler(service usecase.PaymentEventService, log *zap.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment_event")),
	}
}

// Handle handles POST /api/webhooks/stripe. The raw body is needed for
// signature verification, so it is never decoded here.
func (h *PaymentEventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPaymentEventBytes))
	if err != nil {
		utils.ResponseBadRequest(w, "Unreadable request body", nil)
		return
	}

	if err := h.service.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		handleServiceError(w, h.log, err, "handle payment event")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}

package wire

import (
	"krib-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wirePayment mounts the processor callback. It authenticates by signature,
// not by session or API key.
func wirePayment(r chi.Router, handler *adaptor.PaymentEventHandler) {
	r.Post("/api/webhooks/stripe", handler.Handle)
}

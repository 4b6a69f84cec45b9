package wire

import (
	"net/http"

	"krib-booking/internal/adaptor"
	"krib-booking/internal/data/repository"
	"krib-booking/pkg/middleware"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireExternal mounts the API used by AI agents. Every route needs an API
// key and carries its own per-minute budget.
func wireExternal(
	r chi.Router,
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	limiter middleware.Limiter,
	log *zap.Logger,
) {
	limits := config.RateLimit
	limit := func(endpoint string, perMinute int) func(http.Handler) http.Handler {
		return middleware.RateLimit(limiter, endpoint, perMinute, log)
	}

	r.Route("/api/v1/external", func(r chi.Router) {
		r.Use(middleware.APIKey(repo.ExternalService, log))

		// ==================== PROPERTIES ====================
		r.Route("/properties", func(r chi.Router) {
			r.With(limit("search", limits.Search)).Get("/search", handler.Property.Search)
			r.With(limit("availability", limits.Availability)).Get("/{id}/availability", handler.Property.CheckAvailability)
			r.With(limit("pricing", limits.Pricing)).Post("/{id}/pricing", handler.Property.CalculatePricing)
		})

		// ==================== BOOKINGS ====================
		r.Route("/bookings", func(r chi.Router) {
			booking := r.With(limit("booking", limits.Booking))
			booking.Post("/", handler.Booking.CreateBooking)
			booking.Get("/{id}", handler.Booking.GetBooking)
			booking.Put("/{id}/status", handler.Booking.UpdateStatus)
			booking.Post("/{id}/payment-intent", handler.Booking.CreatePaymentIntent)

			r.With(limit("auto_approve", limits.AutoApprove)).Post("/{id}/auto-approve", handler.Booking.AutoApprove)
		})

		// ==================== WEBHOOKS ====================
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(limit("webhooks", limits.Webhooks))

			r.Post("/", handler.Webhook.Register)
			r.Get("/", handler.Webhook.List)
			r.Get("/{id}", handler.Webhook.Get)
			r.Put("/{id}", handler.Webhook.Update)
			r.Delete("/{id}", handler.Webhook.Delete)
			r.Post("/{id}/toggle", handler.Webhook.Toggle)
			r.Post("/{id}/test", handler.Webhook.Test)
		})
	})
}

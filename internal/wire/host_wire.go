package wire

import (
	"krib-booking/internal/adaptor"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/pkg/middleware"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireHost(
	r chi.Router,
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/host", func(r chi.Router) {
		// Require a session AND the host role
		r.Use(middleware.AuthSession(repo.Session, repo.Host, log))
		r.Use(middleware.RequireRole(log, entity.RoleHost))

		r.Post("/logout", handler.Host.Logout)

		// ==================== BOOKING DECISIONS ====================
		r.Post("/bookings/{id}/approve", handler.Host.ApproveBooking)
		r.Post("/bookings/{id}/reject", handler.Host.RejectBooking)
		r.Post("/bookings/{id}/cancel", handler.Host.CancelBooking)

		// ==================== SETTINGS ====================
		r.Get("/settings/auto-approve", handler.Host.GetAutoApprove)
		r.Put("/settings/auto-approve", handler.Host.UpdateAutoApprove)

		// ==================== PAYOUTS ====================
		r.Get("/payouts", handler.Payout.ListPayouts)
		r.Get("/bookings/{id}/payout-eligibility", handler.Payout.Eligibility)
		r.Post("/bookings/{id}/payout", handler.Payout.ProcessPayout)
	})
}

package adaptor

import (
	"net/http"

	"krib-booking/internal/dto/request"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PayoutHandler struct {
	service usecase.PayoutService
	log     *zap.Logger
}

func NewPayoutHandler(service usecase.PayoutService, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "payout")),
	}
}

// ListPayouts handles GET /api/host/payouts
func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Limit:  utils.ParseInt(query.Get("limit"), request.DefaultLimit),
		Offset: utils.ParseNonNegativeInt(query.Get("offset"), 0),
	}

	payouts, err := h.service.List(r.Context(), hostID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list payouts")
		return
	}

	utils.ResponseSuccess(w, "success", payouts)
}

// Eligibility handles GET /api/host/bookings/{id}/payout-eligibility
func (h *PayoutHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	eligibility, err := h.service.Eligibility(r.Context(), hostID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "check payout eligibility")
		return
	}

	utils.ResponseSuccess(w, "success", eligibility)
}

// ProcessPayout handles POST /api/host/bookings/{id}/payout
func (h *PayoutHandler) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	payout, err := h.service.Process(r.Context(), hostID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "process payout")
		return
	}

	utils.ResponseCreated(w, "Payout initiated", payout)
}

package adaptor

import (
	"encoding/json"
	"net/http"

	"krib-booking/internal/dto/request"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BookingHandler serves the booking endpoints of the external API
type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/v1/external/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), serviceID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking request created", booking)
}

// GetBooking handles GET /api/v1/external/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// UpdateStatus handles PUT /api/v1/external/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	var req request.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), serviceID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// AutoApprove handles POST /api/v1/external/bookings/{id}/auto-approve
func (h *BookingHandler) AutoApprove(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	result, err := h.service.AutoApprove(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "auto-approve booking")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// CreatePaymentIntent handles POST /api/v1/external/bookings/{id}/payment-intent
func (h *BookingHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "create payment intent")
		return
	}

	utils.ResponseCreated(w, "success", intent)
}

package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"krib-booking/internal/dto/request"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HostHandler serves a signed-in host's booking actions and settings
type HostHandler struct {
	bookings usecase.BookingService
	hosts    usecase.HostService
	log      *zap.Logger
}

func NewHostHandler(bookings usecase.BookingService, hosts usecase.HostService, log *zap.Logger) *HostHandler {
	return &HostHandler{
		bookings: bookings,
		hosts:    hosts,
		log:      log.With(zap.String("handler", "host")),
	}
}

// ApproveBooking handles POST /api/host/bookings/{id}/approve
func (h *HostHandler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.bookings.Approve(r.Context(), hostID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "approve booking")
		return
	}

	utils.ResponseSuccess(w, "Booking approved", booking)
}

// RejectBooking handles POST /api/host/bookings/{id}/reject
func (h *HostHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.RejectBookingRequest
	if err := decodeOptional(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.bookings.Reject(r.Context(), hostID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "reject booking")
		return
	}

	utils.ResponseSuccess(w, "Booking rejected", booking)
}

// CancelBooking handles POST /api/host/bookings/{id}/cancel
func (h *HostHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CancelBookingRequest
	if err := decodeOptional(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.bookings.Cancel(r.Context(), hostID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// Logout handles POST /api/host/logout
func (h *HostHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.hosts.Logout(r.Context(), token); err != nil {
		handleServiceError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logged out", nil)
}

// GetAutoApprove handles GET /api/host/settings/auto-approve
func (h *HostHandler) GetAutoApprove(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	settings, err := h.hosts.GetAutoApprove(r.Context(), hostID)
	if err != nil {
		handleServiceError(w, h.log, err, "get auto-approve settings")
		return
	}

	utils.ResponseSuccess(w, "success", settings)
}

// UpdateAutoApprove handles PUT /api/host/settings/auto-approve
func (h *HostHandler) UpdateAutoApprove(w http.ResponseWriter, r *http.Request) {
	hostID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.AutoApproveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	settings, err := h.hosts.UpdateAutoApprove(r.Context(), hostID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update auto-approve settings")
		return
	}

	utils.ResponseSuccess(w, "Settings updated", settings)
}

// decodeOptional accepts an empty body for endpoints whose fields are all optional
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

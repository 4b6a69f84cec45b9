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

type WebhookHandler struct {
	service usecase.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// Register handles POST /api/v1/external/webhooks
func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	var req request.RegisterWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	webhook, err := h.service.Register(r.Context(), serviceID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register webhook")
		return
	}

	utils.ResponseCreated(w, "Webhook registered", webhook)
}

// List handles GET /api/v1/external/webhooks
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	query := r.URL.Query()
	req := &request.ListWebhooksRequest{
		ActiveOnly: query.Get("active_only") == "true",
		AgentName:  query.Get("agent_name"),
		PaginatedRequest: request.PaginatedRequest{
			Limit:  utils.ParseInt(query.Get("limit"), request.DefaultLimit),
			Offset: utils.ParseNonNegativeInt(query.Get("offset"), 0),
		},
	}

	webhooks, err := h.service.List(r.Context(), serviceID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list webhooks")
		return
	}

	utils.ResponseSuccess(w, "success", webhooks)
}

// Get handles GET /api/v1/external/webhooks/{id}
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	webhook, err := h.service.Get(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get webhook")
		return
	}

	utils.ResponseSuccess(w, "success", webhook)
}

// Update handles PUT /api/v1/external/webhooks/{id}
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	var req request.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	webhook, err := h.service.Update(r.Context(), serviceID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update webhook")
		return
	}

	utils.ResponseSuccess(w, "Webhook updated", webhook)
}

// Delete handles DELETE /api/v1/external/webhooks/{id}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	if err := h.service.Delete(r.Context(), serviceID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete webhook")
		return
	}

	utils.ResponseSuccess(w, "Webhook deleted", nil)
}

// Toggle handles POST /api/v1/external/webhooks/{id}/toggle
func (h *WebhookHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	webhook, err := h.service.Toggle(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "toggle webhook")
		return
	}

	utils.ResponseSuccess(w, "success", webhook)
}

// Test handles POST /api/v1/external/webhooks/{id}/test
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := utils.GetExternalServiceFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "API key required")
		return
	}

	result, err := h.service.Test(r.Context(), serviceID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "test webhook")
		return
	}

	message := "Test delivery succeeded"
	if !result.Succeeded {
		message = "Test delivery failed"
	}
	utils.ResponseSuccess(w, message, result)
}

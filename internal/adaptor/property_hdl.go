package adaptor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"krib-booking/internal/dto/request"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PropertyHandler struct {
	service usecase.PropertyService
	log     *zap.Logger
}

func NewPropertyHandler(service usecase.PropertyService, log *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		log:     log.With(zap.String("handler", "property")),
	}
}

// Search handles GET /api/v1/external/properties/search
func (h *PropertyHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.SearchPropertiesRequest{
		Location: query.Get("location"),
		MinPrice: utils.ParseFloat(query.Get("min_price")),
		MaxPrice: utils.ParseFloat(query.Get("max_price")),
		Bedrooms: parseOptionalInt(query.Get("bedrooms")),
		Guests:   parseOptionalInt(query.Get("guests")),
		CheckIn:  query.Get("check_in"),
		CheckOut: query.Get("check_out"),
		PaginatedRequest: request.PaginatedRequest{
			Limit:  utils.ParseInt(query.Get("limit"), request.DefaultLimit),
			Offset: utils.ParseNonNegativeInt(query.Get("offset"), 0),
		},
	}

	properties, err := h.service.Search(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search properties")
		return
	}

	utils.ResponseSuccess(w, "success", properties)
}

// CheckAvailability handles GET /api/v1/external/properties/{id}/availability
func (h *PropertyHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.AvailabilityRequest{
		CheckIn:  query.Get("check_in"),
		CheckOut: query.Get("check_out"),
		Guests:   parseOptionalInt(query.Get("guests")),
	}

	availability, err := h.service.CheckAvailability(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// CalculatePricing handles POST /api/v1/external/properties/{id}/pricing
func (h *PropertyHandler) CalculatePricing(w http.ResponseWriter, r *http.Request) {
	var req request.PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	pricing, err := h.service.CalculatePricing(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "calculate pricing")
		return
	}

	utils.ResponseSuccess(w, "success", pricing)
}

// parseOptionalInt returns nil for a missing or malformed value
func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

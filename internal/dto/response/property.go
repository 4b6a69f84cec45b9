package response

import (
	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/pkg/utils"
)

type PropertyResponse struct {
	ID            string  `json:"id"`
	HostID        string  `json:"host_id"`
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	PricePerNight float64 `json:"price_per_night"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	MaxGuests     int     `json:"max_guests"`
	MinimumNights int     `json:"minimum_nights"`
	MaximumNights int     `json:"maximum_nights"`
	AvailableFrom *string `json:"available_from,omitempty"`
	AvailableTo   *string `json:"available_to,omitempty"`
}

type AvailabilityResponse struct {
	PropertyID  string   `json:"property_id"`
	CheckIn     string   `json:"check_in"`
	CheckOut    string   `json:"check_out"`
	Nights      int      `json:"nights"`
	IsAvailable bool     `json:"is_available"`
	Reasons     []string `json:"reasons"`
}

type PricingResponse struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	*calc.PricingBreakdown
}

func PropertyToResponse(p *entity.Property) PropertyResponse {
	resp := PropertyResponse{
		ID:            p.ID.String(),
		HostID:        p.HostID.String(),
		Title:         p.Title,
		Description:   p.Description,
		City:          p.City,
		Country:       p.Country,
		PricePerNight: p.PricePerNight,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		MaxGuests:     p.MaxGuests,
		MinimumNights: p.MinNights(),
		MaximumNights: p.MaxNights(),
	}
	if p.AvailableFrom != nil {
		from := utils.FormatDate(*p.AvailableFrom)
		resp.AvailableFrom = &from
	}
	if p.AvailableTo != nil {
		to := utils.FormatDate(*p.AvailableTo)
		resp.AvailableTo = &to
	}
	return resp
}

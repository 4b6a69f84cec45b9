package usecase

import (
	"context"
	"testing"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) propertyService() *propertyService {
	svc := NewPropertyService(f.repo, calc.NewPricingCalculator(calc.DefaultPricingRules()), zap.NewNop()).(*propertyService)
	svc.now = fixedNow
	return svc
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestSearch_BuildsFilter(t *testing.T) {
	f := newFixture()
	svc := f.propertyService()

	resp, err := svc.Search(context.Background(), &request.SearchPropertiesRequest{
		Location:         "lisbon",
		MinPrice:         floatPtr(100),
		MaxPrice:         floatPtr(600),
		Guests:           intPtr(2),
		CheckIn:          "2026-03-10",
		CheckOut:         "2026-03-15",
		PaginatedRequest: request.PaginatedRequest{Limit: 500},
	})
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, f.property.ID.String(), resp.Data[0].ID)
	assert.Equal(t, request.MaxLimit, resp.Pagination.Limit)

	filter := f.properties.lastFilter
	assert.Equal(t, "lisbon", filter.Location)
	assert.Equal(t, request.MaxLimit, filter.Limit)
	require.NotNil(t, filter.CheckIn)
	assert.Equal(t, day(2026, 3, 10), *filter.CheckIn)
	assert.Equal(t, day(2026, 3, 15), *filter.CheckOut)
}

func TestSearch_DefaultsAndEmptyPage(t *testing.T) {
	f := newFixture()

	resp, err := f.propertyService().Search(context.Background(), &request.SearchPropertiesRequest{Location: "porto"})
	require.NoError(t, err)

	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, request.DefaultLimit, resp.Pagination.Limit)
	assert.False(t, resp.Pagination.HasMore)
}

func TestSearch_RejectsInconsistentFilters(t *testing.T) {
	tests := []struct {
		name string
		req  request.SearchPropertiesRequest
	}{
		{"min above max", request.SearchPropertiesRequest{MinPrice: floatPtr(700), MaxPrice: floatPtr(100)}},
		{"only check-in", request.SearchPropertiesRequest{CheckIn: "2026-03-10"}},
		{"check-out before check-in", request.SearchPropertiesRequest{CheckIn: "2026-03-10", CheckOut: "2026-03-09"}},
		{"bad date", request.SearchPropertiesRequest{CheckIn: "soon", CheckOut: "2026-03-09"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.propertyService().Search(context.Background(), &tt.req)

			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	tests := []struct {
		name      string
		checkIn   string
		checkOut  string
		guests    *int
		available bool
		reasons   []string
	}{
		{"free stay", "2026-03-20", "2026-03-25", intPtr(2), true, []string{}},
		{"overlaps existing booking", "2026-03-12", "2026-03-14", nil, false, []string{reasonDatesTaken}},
		{
			"every failing rule reported", "2026-02-27", "2026-02-28", intPtr(6), false,
			[]string{"check-in date cannot be in the past", "minimum stay is 2 nights", "property allows at most 4 guests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.addBooking(day(2026, 3, 10), day(2026, 3, 15), entity.BookingStatusConfirmed, entity.PaymentStatusSucceeded)

			resp, err := f.propertyService().CheckAvailability(context.Background(), f.property.ID.String(),
				&request.AvailabilityRequest{CheckIn: tt.checkIn, CheckOut: tt.checkOut, Guests: tt.guests})
			require.NoError(t, err)

			assert.Equal(t, tt.available, resp.IsAvailable)
			assert.Equal(t, tt.reasons, resp.Reasons)
		})
	}
}

func TestCheckAvailability_UnknownProperty(t *testing.T) {
	f := newFixture()

	_, err := f.propertyService().CheckAvailability(context.Background(), uuid.NewString(),
		&request.AvailabilityRequest{CheckIn: "2026-03-20", CheckOut: "2026-03-25"})

	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCalculatePricing(t *testing.T) {
	f := newFixture()
	svc := f.propertyService()

	resp, err := svc.CalculatePricing(context.Background(), f.property.ID.String(),
		&request.PricingRequest{CheckIn: "2026-03-10", CheckOut: "2026-03-15", PromoCode: "KRIB10"})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Nights)
	assert.Equal(t, 2475.0, resp.TotalPrice)
	assert.True(t, resp.PromoApplied)
	assert.Equal(t, "2026-03-10", resp.CheckIn)

	_, err = svc.CalculatePricing(context.Background(), f.property.ID.String(),
		&request.PricingRequest{CheckIn: "2026-03-10", CheckOut: "2026-03-10"})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

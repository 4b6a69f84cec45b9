package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/dto/request"
	"krib-booking/internal/dto/response"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PropertyService interface {
	Search(ctx context.Context, req *request.SearchPropertiesRequest) (*response.PaginatedResponse[response.PropertyResponse], error)
	CheckAvailability(ctx context.Context, propertyID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error)
	CalculatePricing(ctx context.Context, propertyID string, req *request.PricingRequest) (*response.PricingResponse, error)
}

type propertyService struct {
	repo      *repository.Repository
	pricing   *calc.PricingCalculator
	conflicts *calc.ConflictChecker
	log       *zap.Logger
	now       func() time.Time
}

func NewPropertyService(repo *repository.Repository, pricing *calc.PricingCalculator, log *zap.Logger) PropertyService {
	return &propertyService{
		repo:      repo,
		pricing:   pricing,
		conflicts: calc.NewConflictChecker(repo.Booking),
		log:       log.With(zap.String("service", "property")),
		now:       time.Now,
	}
}

func (s *propertyService) Search(ctx context.Context, req *request.SearchPropertiesRequest) (*response.PaginatedResponse[response.PropertyResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	page := req.PaginatedRequest.Normalize()
	filter := repository.PropertyFilter{
		Location:    req.Location,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		MinBedrooms: req.Bedrooms,
		Guests:      req.Guests,
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, NewValidationError("min_price cannot be greater than max_price")
	}

	// date filtering only makes sense with both ends of the stay
	if (req.CheckIn == "") != (req.CheckOut == "") {
		return nil, NewValidationError("check_in and check_out must be given together")
	}
	if req.CheckIn != "" {
		checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
		if err != nil {
			return nil, err
		}
		if !checkOut.After(checkIn) {
			return nil, &ValidationError{Reason: calc.ErrInvalidDateRange.Error()}
		}
		filter.CheckIn = &checkIn
		filter.CheckOut = &checkOut
	}

	properties, total, err := s.repo.Property.Search(ctx, filter)
	if err != nil {
		s.log.Error("Failed to search properties", zap.Error(err))
		return nil, fmt.Errorf("search properties: %w", err)
	}

	data := make([]response.PropertyResponse, 0, len(properties))
	for _, p := range properties {
		data = append(data, response.PropertyToResponse(p))
	}

	return response.NewPaginatedResponse(data, page.Limit, page.Offset, total), nil
}

// CheckAvailability reports every reason the stay cannot be booked, not
// just the first one.
func (s *propertyService) CheckAvailability(ctx context.Context, propertyID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	property, err := s.findProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	guests := 0
	if req.Guests != nil {
		guests = *req.Guests
	}

	reasons := stayViolations(property, checkIn, checkOut, s.now().UTC(), guests)

	if checkOut.After(checkIn) {
		conflict, err := s.conflicts.HasConflict(ctx, property.ID, checkIn, checkOut, nil)
		if err != nil {
			s.log.Error("Failed to check conflicts", zap.Error(err), zap.String("property_id", propertyID))
			return nil, fmt.Errorf("check availability: %w", err)
		}
		if conflict {
			reasons = append(reasons, reasonDatesTaken)
		}
	}

	if reasons == nil {
		reasons = []string{}
	}

	nights := entity.NightsBetween(checkIn, checkOut)
	if nights < 0 {
		nights = 0
	}

	return &response.AvailabilityResponse{
		PropertyID:  property.ID.String(),
		CheckIn:     utils.FormatDate(checkIn),
		CheckOut:    utils.FormatDate(checkOut),
		Nights:      nights,
		IsAvailable: len(reasons) == 0,
		Reasons:     reasons,
	}, nil
}

func (s *propertyService) CalculatePricing(ctx context.Context, propertyID string, req *request.PricingRequest) (*response.PricingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	property, err := s.findProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Calculate(property.PricePerNight, checkIn, checkOut, req.PromoCode)
	if err != nil {
		if errors.Is(err, calc.ErrInvalidDateRange) {
			return nil, &ValidationError{Reason: err.Error()}
		}
		return nil, fmt.Errorf("calculate pricing: %w", err)
	}

	return &response.PricingResponse{
		PropertyID:       property.ID.String(),
		CheckIn:          utils.FormatDate(checkIn),
		CheckOut:         utils.FormatDate(checkOut),
		PricingBreakdown: quote,
	}, nil
}

func (s *propertyService) findProperty(ctx context.Context, propertyID string) (*entity.Property, error) {
	id, err := uuid.Parse(propertyID)
	if err != nil {
		return nil, NewValidationError("invalid property id %s", propertyID)
	}

	property, err := s.repo.Property.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find property", zap.Error(err), zap.String("property_id", propertyID))
		return nil, fmt.Errorf("find property %s: %w", propertyID, err)
	}
	if property == nil || property.Status != entity.PropertyStatusActive {
		return nil, &NotFoundError{Resource: "property", ID: propertyID}
	}
	return property, nil
}

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
	"krib-booking/internal/notify"
	"krib-booking/pkg/payment"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// External agent endpoints, scoped to the calling service
	CreateBooking(ctx context.Context, serviceID uuid.UUID, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error)
	GetBooking(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.BookingResponse, error)
	UpdateStatus(ctx context.Context, serviceID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
	AutoApprove(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.AutoApproveResponse, error)
	CreatePaymentIntent(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.PaymentIntentResponse, error)

	// Host endpoints
	Approve(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.BookingResponse, error)
	Reject(ctx context.Context, hostID uuid.UUID, bookingID string, req *request.RejectBookingRequest) (*response.BookingResponse, error)
	Cancel(ctx context.Context, hostID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error)

	// Scheduled
	CompletePastBookings(ctx context.Context) (int64, error)
}

type bookingService struct {
	repo      *repository.Repository
	pricing   *calc.PricingCalculator
	conflicts *calc.ConflictChecker
	payments  PaymentGateway
	events    EventPublisher
	currency  string
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	repo *repository.Repository,
	pricing *calc.PricingCalculator,
	payments PaymentGateway,
	events EventPublisher,
	currency string,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		pricing:   pricing,
		conflicts: calc.NewConflictChecker(repo.Booking),
		payments:  payments,
		events:    events,
		currency:  currency,
		log:       log.With(zap.String("service", "booking")),
		now:       time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, serviceID uuid.UUID, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, NewFieldValidationError(errs)
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		return nil, NewValidationError("invalid property id %s", req.PropertyID)
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	property, err := s.activeProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	// first failing rule wins
	if reasons := stayViolations(property, checkIn, checkOut, s.now().UTC(), req.Guests); len(reasons) > 0 {
		s.log.Info("Booking request rejected",
			zap.String("property_id", propertyID.String()),
			zap.String("reason", reasons[0]),
		)
		return nil, &ValidationError{Reason: reasons[0]}
	}

	conflict, err := s.conflicts.HasConflict(ctx, propertyID, checkIn, checkOut, nil)
	if err != nil {
		s.log.Error("Failed to check booking conflicts", zap.Error(err), zap.String("property_id", propertyID.String()))
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if conflict {
		return nil, &ConflictError{Message: reasonDatesTaken}
	}

	quote, err := s.pricing.Calculate(property.PricePerNight, checkIn, checkOut, req.PromoCode)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	now := s.now().UTC()
	booking := &entity.Booking{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		PropertyID:        property.ID,
		HostID:            property.HostID,
		ExternalServiceID: &serviceID,
		GuestName:         req.GuestName,
		GuestEmail:        req.GuestEmail,
		GuestPhone:        req.GuestPhone,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Guests:            req.Guests,
		TotalAmount:       quote.TotalPrice,
		Status:            entity.BookingStatusPending,
		PaymentStatus:     entity.PaymentStatusPending,
		HostPayoutStatus:  entity.HostPayoutStatusNone,
		SpecialRequests:   req.SpecialRequests,
	}

	// the insert re-checks overlap under a property lock
	if err := s.repo.Booking.CreateIfAvailable(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingConflict):
			return nil, &ConflictError{Message: reasonDatesTaken}
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Resource: "property", ID: propertyID.String()}
		}
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("property_id", propertyID.String()))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("property_id", property.ID.String()),
		zap.String("external_service_id", serviceID.String()),
		zap.Float64("total_amount", booking.TotalAmount),
	)

	host := s.announceCreated(ctx, property, booking)

	return &response.CreateBookingResponse{
		BookingID: booking.ID.String(),
		Status:    booking.Status,
		Total:     booking.TotalAmount,
		NextSteps: nextSteps(booking, host),
	}, nil
}

// announceCreated fires the creation side effects. The booking is already
// stored, so failures here are only logged.
func (s *bookingService) announceCreated(ctx context.Context, property *entity.Property, booking *entity.Booking) *entity.Host {
	s.events.Publish(bookingEvent(entity.EventBookingCreated, booking, map[string]any{
		"property_title": property.Title,
	}))

	host, err := s.repo.Host.FindByID(ctx, booking.HostID)
	if err != nil || host == nil {
		s.log.Warn("Host not loaded, skipping host notification",
			zap.Error(err),
			zap.String("host_id", booking.HostID.String()),
		)
		return nil
	}

	if !calc.AutoApproves(host, booking.TotalAmount) {
		s.events.Publish(bookingEvent(entity.EventHostResponseNeeded, booking, map[string]any{
			"property_title": property.Title,
		}))
	}
	s.events.NotifyHost(notify.HostNotification{Host: host, Property: property, Booking: booking})

	return host
}

func nextSteps(b *entity.Booking, host *entity.Host) []string {
	steps := []string{
		fmt.Sprintf("Create a payment intent: POST /api/v1/external/bookings/%s/payment-intent", b.ID),
	}
	if calc.AutoApproves(host, b.TotalAmount) {
		steps = append(steps, fmt.Sprintf("Host auto-approval applies: POST /api/v1/external/bookings/%s/auto-approve", b.ID))
	} else {
		steps = append(steps, "Wait for the host to approve the booking request")
	}
	return append(steps, "Listen for booking.confirmed or booking.cancelled webhooks")
}

func (s *bookingService) GetBooking(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.agentBooking(ctx, serviceID, bookingID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, serviceID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	booking, err := s.agentBooking(ctx, serviceID, bookingID)
	if err != nil {
		return nil, err
	}

	// guest cancellations refund whatever was captured
	updated, err := s.cancel(ctx, booking, nil, "guest", req.Reason)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

// AutoApprove confirms a pending booking when the host's setting covers its
// total. Calling it on a booking that is no longer pending is an error.
func (s *bookingService) AutoApprove(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.AutoApproveResponse, error) {
	booking, err := s.agentBooking(ctx, serviceID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending {
		return nil, &InvalidStateError{Current: string(booking.Status), Requested: string(entity.BookingStatusConfirmed)}
	}

	host, err := s.repo.Host.FindByID(ctx, booking.HostID)
	if err != nil {
		return nil, fmt.Errorf("find host %s: %w", booking.HostID, err)
	}
	if host == nil {
		return nil, &NotFoundError{Resource: "host", ID: booking.HostID.String()}
	}

	resp := &response.AutoApproveResponse{BookingID: booking.ID.String(), Status: booking.Status}

	switch {
	case !host.AutoApproveBookings:
		resp.Reason = "host reviews every booking manually"
		return resp, nil
	case !calc.AutoApproves(host, booking.TotalAmount):
		resp.Reason = fmt.Sprintf("total %.2f exceeds the host's auto-approve limit of %.2f", booking.TotalAmount, host.AutoApproveAmountLimit)
		return resp, nil
	}

	confirmed, err := s.transition(ctx, booking, entity.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.events.Publish(bookingEvent(entity.EventBookingConfirmed, confirmed, map[string]any{"confirmed_by": "auto_approval"}))
	s.log.Info("Booking auto-approved", zap.String("booking_id", confirmed.ID.String()))

	resp.Status = confirmed.Status
	resp.AutoApproved = true
	resp.Reason = "total is within the host's auto-approve limit"
	return resp, nil
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, serviceID uuid.UUID, bookingID string) (*response.PaymentIntentResponse, error) {
	booking, err := s.agentBooking(ctx, serviceID, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.Occupying() {
		return nil, &InvalidStateError{Current: string(booking.Status), Requested: "payment"}
	}
	if booking.PaymentStatus != entity.PaymentStatusPending {
		return nil, &ConflictError{Message: fmt.Sprintf("payment already %s for this booking", booking.PaymentStatus)}
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, payment.PaymentIntentInput{
		Amount:     booking.TotalAmount,
		Currency:   s.currency,
		BookingID:  booking.ID.String(),
		GuestEmail: booking.GuestEmail,
	})
	if err != nil {
		s.log.Error("Failed to create payment intent", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, &ExternalServiceError{Service: "stripe", Message: payment.Message(err), Err: err}
	}

	if err := s.repo.Booking.UpdatePaymentStatus(ctx, booking.ID, entity.PaymentStatusProcessing, &intent.ID); err != nil {
		s.log.Error("Failed to store payment intent", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	return &response.PaymentIntentResponse{
		BookingID:       booking.ID.String(),
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          booking.TotalAmount,
		Currency:        s.currency,
	}, nil
}

func (s *bookingService) Approve(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.hostBooking(ctx, hostID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending {
		return nil, &InvalidStateError{Current: string(booking.Status), Requested: string(entity.BookingStatusConfirmed)}
	}

	confirmed, err := s.transition(ctx, booking, entity.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.events.Publish(bookingEvent(entity.EventBookingConfirmed, confirmed, map[string]any{"confirmed_by": "host"}))
	s.log.Info("Booking approved by host", zap.String("booking_id", confirmed.ID.String()))

	resp := response.BookingToResponse(confirmed)
	return &resp, nil
}

func (s *bookingService) Reject(ctx context.Context, hostID uuid.UUID, bookingID string, req *request.RejectBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	booking, err := s.hostBooking(ctx, hostID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending {
		return nil, &InvalidStateError{Current: string(booking.Status), Requested: string(entity.BookingStatusCancelled)}
	}

	rejected, err := s.cancel(ctx, booking, nil, "host_rejection", req.Reason)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(rejected)
	return &resp, nil
}

func (s *bookingService) Cancel(ctx context.Context, hostID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	booking, err := s.hostBooking(ctx, hostID, bookingID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.cancel(ctx, booking, req.RefundAmount, "host", req.Reason)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(cancelled)
	return &resp, nil
}

// cancel refunds first, then moves the booking to cancelled. A nil
// refundAmount refunds the full captured amount.
func (s *bookingService) cancel(ctx context.Context, booking *entity.Booking, refundAmount *float64, by, reason string) (*entity.Booking, error) {
	if !booking.Status.CanTransitionTo(entity.BookingStatusCancelled) {
		return nil, &InvalidStateError{Current: string(booking.Status), Requested: string(entity.BookingStatusCancelled)}
	}

	paid := booking.PaymentStatus == entity.PaymentStatusSucceeded && booking.PaymentIntentID != nil

	refund := 0.0
	switch {
	case refundAmount != nil:
		refund = utils.RoundMoney(*refundAmount)
		if refund > booking.TotalAmount {
			return nil, NewValidationError("refund amount %.2f cannot exceed booking total %.2f", refund, booking.TotalAmount)
		}
		if refund > 0 && !paid {
			return nil, NewValidationError("booking has no captured payment to refund")
		}
	case paid:
		refund = booking.TotalAmount
	}

	if refund > 0 {
		if _, err := s.payments.Refund(ctx, *booking.PaymentIntentID, refund); err != nil {
			s.log.Error("Refund failed", zap.Error(err), zap.String("booking_id", booking.ID.String()))
			return nil, &ExternalServiceError{Service: "stripe", Message: payment.Message(err), Err: err}
		}

		status := entity.PaymentStatusPartiallyRefunded
		if refund == booking.TotalAmount {
			status = entity.PaymentStatusRefunded
		}
		if err := s.repo.Booking.RecordRefund(ctx, booking.ID, refund, status); err != nil {
			// the processor's charge.refunded event records it again
			s.log.Error("Failed to record refund", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		}
	}

	cancelled, err := s.transition(ctx, booking, entity.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	extra := map[string]any{"cancelled_by": by}
	if reason != "" {
		extra["reason"] = reason
	}
	if refund > 0 {
		extra["refund_amount"] = fmt.Sprintf("%.2f", refund)
	}
	s.events.Publish(bookingEvent(entity.EventBookingCancelled, cancelled, extra))

	s.log.Info("Booking cancelled",
		zap.String("booking_id", cancelled.ID.String()),
		zap.String("cancelled_by", by),
		zap.Float64("refund_amount", refund),
	)
	return cancelled, nil
}

// transition applies a guarded status update. Losing a race to another
// writer surfaces as an invalid state error with the state that won.
func (s *bookingService) transition(ctx context.Context, booking *entity.Booking, to entity.BookingStatus) (*entity.Booking, error) {
	updated, err := s.repo.Booking.Transition(ctx, booking.ID, booking.Status, to, s.now().UTC())
	if err != nil {
		s.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("update booking %s: %w", booking.ID, err)
	}
	if updated != nil {
		return updated, nil
	}

	current, err := s.repo.Booking.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("reload booking %s: %w", booking.ID, err)
	}
	state := "deleted"
	if current != nil {
		state = string(current.Status)
	}
	return nil, &InvalidStateError{Current: state, Requested: string(to)}
}

func (s *bookingService) CompletePastBookings(ctx context.Context) (int64, error) {
	today := utils.DateOnly(s.now().UTC())

	n, err := s.repo.Booking.CompletePast(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	if n > 0 {
		s.log.Info("Bookings completed", zap.Int64("count", n))
	}
	return n, nil
}

func (s *bookingService) activeProperty(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	property, err := s.repo.Property.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find property", zap.Error(err), zap.String("property_id", id.String()))
		return nil, fmt.Errorf("find property %s: %w", id, err)
	}
	if property == nil || property.Status != entity.PropertyStatusActive {
		return nil, &NotFoundError{Resource: "property", ID: id.String()}
	}
	return property, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, NewValidationError("invalid booking id %s", bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	return booking, nil
}

func (s *bookingService) agentBooking(ctx context.Context, serviceID uuid.UUID, bookingID string) (*entity.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ExternalServiceID == nil || *booking.ExternalServiceID != serviceID {
		s.log.Warn("Booking accessed by another service",
			zap.String("booking_id", bookingID),
			zap.String("external_service_id", serviceID.String()),
		)
		return nil, &AuthorizationError{Message: "booking was not created by this service"}
	}
	return booking, nil
}

func (s *bookingService) hostBooking(ctx context.Context, hostID uuid.UUID, bookingID string) (*entity.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.HostID != hostID {
		s.log.Warn("Booking accessed by another host",
			zap.String("booking_id", bookingID),
			zap.String("host_id", hostID.String()),
		)
		return nil, &AuthorizationError{Message: "booking belongs to another host"}
	}
	return booking, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/pkg/payment"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentEventService ingests payment-processor callbacks. Every event is
// logged before its side effects run, so a redelivery is a no-op.
type PaymentEventService interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

type paymentEventService struct {
	repo     *repository.Repository
	payments PaymentGateway
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentEventService(repo *repository.Repository, payments PaymentGateway, events EventPublisher, log *zap.Logger) PaymentEventService {
	return &paymentEventService{
		repo:     repo,
		payments: payments,
		events:   events,
		log:      log.With(zap.String("service", "payment_event")),
		now:      time.Now,
	}
}

func (s *paymentEventService) Handle(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.payments.ParseEvent(payload, signature)
	if err != nil {
		s.log.Warn("Rejected payment event", zap.Error(err))
		if errors.Is(err, payment.ErrInvalidSignature) {
			return NewValidationError("invalid payment event signature")
		}
		return NewValidationError("malformed payment event")
	}

	log := s.log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	stored, err := s.repo.PaymentEvent.Record(ctx, &entity.PaymentEvent{
		BaseSimple:      entity.NewBaseSimple(s.now()),
		ExternalEventID: ev.ID,
		EventType:       ev.Type,
		Payload:         ev.Payload,
	})
	if err != nil {
		log.Error("Failed to record payment event", zap.Error(err))
		return fmt.Errorf("record payment event %s: %w", ev.ID, err)
	}
	if stored.Processed {
		log.Info("Payment event already processed")
		return nil
	}

	if err := s.apply(ctx, ev); err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			// left unprocessed; the processor redelivers it
			log.Error("Failed to apply payment event", zap.Error(err))
			return fmt.Errorf("apply payment event %s: %w", ev.ID, err)
		}

		log.Warn("Payment event refers to unknown record", zap.Error(err))
		msg := err.Error()
		return s.markProcessed(ctx, stored.ID, &msg, log)
	}

	log.Info("Payment event processed")
	return s.markProcessed(ctx, stored.ID, nil, log)
}

func (s *paymentEventService) markProcessed(ctx context.Context, id uuid.UUID, errMsg *string, log *zap.Logger) error {
	if err := s.repo.PaymentEvent.MarkProcessed(ctx, id, errMsg); err != nil {
		log.Error("Failed to mark payment event processed", zap.Error(err))
		return fmt.Errorf("mark payment event processed: %w", err)
	}
	return nil
}

func (s *paymentEventService) apply(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventPaymentIntentSucceeded:
		return s.paymentSucceeded(ctx, ev)
	case payment.EventPaymentIntentFailed:
		return s.paymentFailed(ctx, ev)
	case payment.EventChargeRefunded:
		return s.chargeRefunded(ctx, ev)
	case payment.EventTransferPaid:
		return s.transferPaid(ctx, ev)
	case payment.EventTransferFailed:
		return s.transferFailed(ctx, ev)
	case payment.EventAccountUpdated:
		return s.accountUpdated(ctx, ev)
	default:
		s.log.Debug("Ignoring payment event type", zap.String("event_type", ev.Type))
		return nil
	}
}

func (s *paymentEventService) paymentSucceeded(ctx context.Context, ev *payment.Event) error {
	booking, err := s.bookingForIntent(ctx, ev)
	if err != nil {
		return err
	}

	if err := s.repo.Booking.UpdatePaymentStatus(ctx, booking.ID, entity.PaymentStatusSucceeded, &ev.PaymentIntentID); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	booking.PaymentStatus = entity.PaymentStatusSucceeded

	s.events.Publish(bookingEvent(entity.EventPaymentReceived, booking, map[string]any{
		"payment_intent_id": ev.PaymentIntentID,
	}))

	if booking.Status != entity.BookingStatusPending {
		return nil
	}

	confirmed, err := s.repo.Booking.Transition(ctx, booking.ID, entity.BookingStatusPending, entity.BookingStatusConfirmed, s.now().UTC())
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", booking.ID, err)
	}
	if confirmed != nil {
		s.events.Publish(bookingEvent(entity.EventBookingConfirmed, confirmed, map[string]any{"confirmed_by": "payment"}))
	}
	return nil
}

func (s *paymentEventService) paymentFailed(ctx context.Context, ev *payment.Event) error {
	booking, err := s.bookingForIntent(ctx, ev)
	if err != nil {
		return err
	}

	if err := s.repo.Booking.UpdatePaymentStatus(ctx, booking.ID, entity.PaymentStatusFailed, &ev.PaymentIntentID); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if booking.Status != entity.BookingStatusPending {
		return nil
	}

	cancelled, err := s.repo.Booking.Transition(ctx, booking.ID, entity.BookingStatusPending, entity.BookingStatusCancelled, s.now().UTC())
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", booking.ID, err)
	}
	if cancelled != nil {
		extra := map[string]any{"cancelled_by": "payment_failure"}
		if ev.FailureMessage != "" {
			extra["reason"] = ev.FailureMessage
		}
		s.events.Publish(bookingEvent(entity.EventBookingCancelled, cancelled, extra))
	}
	return nil
}

func (s *paymentEventService) chargeRefunded(ctx context.Context, ev *payment.Event) error {
	booking, err := s.bookingForIntent(ctx, ev)
	if err != nil {
		return err
	}

	status := entity.PaymentStatusPartiallyRefunded
	if ev.FullyRefunded {
		status = entity.PaymentStatusRefunded
	}

	amount := utils.RoundMoney(ev.AmountRefunded)
	if amount > booking.TotalAmount {
		amount = booking.TotalAmount
	}

	if err := s.repo.Booking.RecordRefund(ctx, booking.ID, amount, status); err != nil {
		return fmt.Errorf("record refund: %w", err)
	}
	return nil
}

func (s *paymentEventService) transferPaid(ctx context.Context, ev *payment.Event) error {
	payout, err := s.payoutForTransfer(ctx, ev)
	if err != nil {
		return err
	}

	if err := s.repo.Payout.MarkPaid(ctx, payout.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("mark payout paid: %w", err)
	}
	if err := s.repo.Booking.UpdateHostPayoutStatus(ctx, payout.BookingID, entity.HostPayoutStatusPaid); err != nil {
		return fmt.Errorf("update host payout status: %w", err)
	}
	return nil
}

func (s *paymentEventService) transferFailed(ctx context.Context, ev *payment.Event) error {
	payout, err := s.payoutForTransfer(ctx, ev)
	if err != nil {
		return err
	}

	if err := s.repo.Payout.MarkFailed(ctx, payout.ID, ev.FailureMessage); err != nil {
		return fmt.Errorf("mark payout failed: %w", err)
	}
	if err := s.repo.Booking.UpdateHostPayoutStatus(ctx, payout.BookingID, entity.HostPayoutStatusFailed); err != nil {
		return fmt.Errorf("update host payout status: %w", err)
	}
	return nil
}

func (s *paymentEventService) accountUpdated(ctx context.Context, ev *payment.Event) error {
	if ev.Account == nil {
		return nil
	}

	err := s.repo.Host.UpdateStripeAccount(ctx, ev.Account.ID, ev.Account.Verified, ev.Account.PayoutsEnabled)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "host account", ID: ev.Account.ID}
	}
	if err != nil {
		return fmt.Errorf("update host account %s: %w", ev.Account.ID, err)
	}
	return nil
}

func (s *paymentEventService) bookingForIntent(ctx context.Context, ev *payment.Event) (*entity.Booking, error) {
	if ev.PaymentIntentID != "" {
		booking, err := s.repo.Booking.FindByPaymentIntentID(ctx, ev.PaymentIntentID)
		if err != nil {
			return nil, fmt.Errorf("find booking for intent %s: %w", ev.PaymentIntentID, err)
		}
		if booking != nil {
			return booking, nil
		}
	}

	// the intent id may not be stored yet; fall back to metadata
	if id, err := uuid.Parse(ev.BookingID); err == nil {
		booking, err := s.repo.Booking.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find booking %s: %w", id, err)
		}
		if booking != nil {
			return booking, nil
		}
	}

	return nil, &NotFoundError{Resource: "booking for payment intent", ID: ev.PaymentIntentID}
}

func (s *paymentEventService) payoutForTransfer(ctx context.Context, ev *payment.Event) (*entity.Payout, error) {
	payout, err := s.repo.Payout.FindByTransferReference(ctx, ev.TransferID)
	if err != nil {
		return nil, fmt.Errorf("find payout for transfer %s: %w", ev.TransferID, err)
	}
	if payout == nil {
		return nil, &NotFoundError{Resource: "payout for transfer", ID: ev.TransferID}
	}
	return payout, nil
}

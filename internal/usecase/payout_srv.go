package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/dto/request"
	"krib-booking/internal/dto/response"
	"krib-booking/pkg/payment"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepBatchSize = 100

type PayoutService interface {
	Eligibility(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.PayoutEligibilityResponse, error)
	Process(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.PayoutResponse, error)
	List(ctx context.Context, hostID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PayoutResponse], error)

	// Sweep pays out every booking whose delay has passed
	Sweep(ctx context.Context) (*response.PayoutSweepResult, error)
}

type payoutService struct {
	repo     *repository.Repository
	policy   calc.PayoutPolicy
	payments PaymentGateway
	currency string
	log      *zap.Logger
	now      func() time.Time
}

func NewPayoutService(repo *repository.Repository, policy calc.PayoutPolicy, payments PaymentGateway, currency string, log *zap.Logger) PayoutService {
	return &payoutService{
		repo:     repo,
		policy:   policy,
		payments: payments,
		currency: currency,
		log:      log.With(zap.String("service", "payout")),
		now:      time.Now,
	}
}

func (s *payoutService) Eligibility(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.PayoutEligibilityResponse, error) {
	booking, host, err := s.hostBooking(ctx, hostID, bookingID)
	if err != nil {
		return nil, err
	}

	return &response.PayoutEligibilityResponse{
		BookingID:         booking.ID.String(),
		PayoutEligibility: s.policy.Eligibility(booking, host, s.now().UTC()),
		Split:             calc.SplitPayout(booking.TotalAmount, s.policy.FeePercentage),
	}, nil
}

func (s *payoutService) Process(ctx context.Context, hostID uuid.UUID, bookingID string) (*response.PayoutResponse, error) {
	booking, host, err := s.hostBooking(ctx, hostID, bookingID)
	if err != nil {
		return nil, err
	}

	payout, err := s.process(ctx, booking, host)
	if err != nil {
		return nil, err
	}

	resp := response.PayoutToResponse(payout)
	return &resp, nil
}

// process checks eligibility, claims the booking, records the payout and
// starts the transfer. The processor's transfer callback finishes it.
func (s *payoutService) process(ctx context.Context, booking *entity.Booking, host *entity.Host) (*entity.Payout, error) {
	log := s.log.With(zap.String("booking_id", booking.ID.String()))

	switch booking.HostPayoutStatus {
	case entity.HostPayoutStatusProcessing, entity.HostPayoutStatusPaid:
		return nil, &ConflictError{Message: fmt.Sprintf("payout already %s for this booking", booking.HostPayoutStatus)}
	}

	eligibility := s.policy.Eligibility(booking, host, s.now().UTC())
	if !eligibility.Eligible {
		return nil, &ValidationError{Reason: "booking is not eligible for payout: " + strings.Join(eligibility.Reasons, "; ")}
	}

	claimed, err := s.repo.Booking.ClaimPayout(ctx, booking.ID)
	if err != nil {
		log.Error("Failed to claim payout", zap.Error(err))
		return nil, fmt.Errorf("claim payout: %w", err)
	}
	if !claimed {
		return nil, &ConflictError{Message: "payout already initiated for this booking"}
	}

	split := calc.SplitPayout(booking.TotalAmount, s.policy.FeePercentage)
	now := s.now().UTC()
	payout := &entity.Payout{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		BookingID:   booking.ID,
		UserID:      host.ID,
		Amount:      split.HostAmount,
		PlatformFee: split.PlatformFee,
		Currency:    s.currency,
		Status:      entity.PayoutStatusPending,
		InitiatedAt: now,
	}

	if err := s.repo.Payout.Create(ctx, payout); err != nil {
		s.releaseClaim(ctx, booking.ID, log)
		if errors.Is(err, repository.ErrPayoutAlreadyInitiated) {
			// a live payout row from an earlier attempt whose failure was never recorded
			log.Warn("Payout claim released: live payout row already exists")
			return nil, &ConflictError{Message: "payout already initiated for this booking"}
		}
		log.Error("Failed to create payout", zap.Error(err))
		return nil, fmt.Errorf("create payout: %w", err)
	}

	ref, err := s.payments.Transfer(ctx, payment.TransferInput{
		Amount:      split.HostAmount,
		Currency:    s.currency,
		Destination: *host.StripeAccountID,
		BookingID:   booking.ID.String(),
		PayoutID:    payout.ID.String(),
	})
	if err != nil {
		msg := payment.Message(err)
		log.Error("Payout transfer failed", zap.Error(err), zap.String("payout_id", payout.ID.String()))

		// failed payouts are not retried here; the next sweep or an operator re-triggers
		if markErr := s.repo.Payout.MarkFailed(ctx, payout.ID, msg); markErr != nil {
			log.Error("Failed to mark payout failed", zap.Error(markErr))
		}
		s.releaseClaim(ctx, booking.ID, log)
		return nil, &ExternalServiceError{Service: "stripe", Message: msg, Err: err}
	}

	if err := s.repo.Payout.MarkProcessing(ctx, payout.ID, ref); err != nil {
		log.Error("Failed to mark payout processing", zap.Error(err), zap.String("transfer", ref))
		return nil, fmt.Errorf("mark payout processing: %w", err)
	}

	payout.Status = entity.PayoutStatusProcessing
	payout.TransferReference = &ref

	log.Info("Payout initiated",
		zap.String("payout_id", payout.ID.String()),
		zap.String("transfer", ref),
		zap.Float64("amount", payout.Amount),
		zap.Float64("platform_fee", payout.PlatformFee),
	)
	return payout, nil
}

// releaseClaim hands the booking back to the sweep. It must land even when
// the caller has gone away, or the booking stays claimed for good.
func (s *payoutService) releaseClaim(ctx context.Context, bookingID uuid.UUID, log *zap.Logger) {
	if err := s.repo.Booking.UpdateHostPayoutStatus(context.WithoutCancel(ctx), bookingID, entity.HostPayoutStatusFailed); err != nil {
		log.Error("Failed to mark booking payout failed", zap.Error(err))
	}
}

func (s *payoutService) Sweep(ctx context.Context) (*response.PayoutSweepResult, error) {
	today := utils.DateOnly(s.now().UTC())
	cutoff := today.AddDate(0, 0, -s.policy.DelayDays)

	bookings, err := s.repo.Booking.FindPayoutCandidates(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find payout candidates: %w", err)
	}

	result := &response.PayoutSweepResult{Candidates: len(bookings)}
	hosts := make(map[uuid.UUID]*entity.Host)

	for _, b := range bookings {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		host, ok := hosts[b.HostID]
		if !ok {
			host, err = s.repo.Host.FindByID(ctx, b.HostID)
			if err != nil {
				s.log.Error("Failed to load host for payout", zap.Error(err), zap.String("host_id", b.HostID.String()))
				result.Failed++
				continue
			}
			hosts[b.HostID] = host
		}

		if !s.policy.Eligibility(b, host, today).Eligible {
			result.Skipped++
			continue
		}

		if _, err := s.process(ctx, b, host); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				result.Skipped++
				continue
			}
			result.Failed++
			continue
		}
		result.Processed++
	}

	if result.Candidates > 0 {
		s.log.Info("Payout sweep finished",
			zap.Int("candidates", result.Candidates),
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}

func (s *payoutService) List(ctx context.Context, hostID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PayoutResponse], error) {
	page := req.Normalize()

	payouts, err := s.repo.Payout.FindByUserID(ctx, hostID, page.Limit, page.Offset)
	if err != nil {
		s.log.Error("Failed to list payouts", zap.Error(err), zap.String("host_id", hostID.String()))
		return nil, fmt.Errorf("list payouts: %w", err)
	}

	total, err := s.repo.Payout.CountByUserID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("count payouts: %w", err)
	}

	data := make([]response.PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		data = append(data, response.PayoutToResponse(p))
	}

	return response.NewPaginatedResponse(data, page.Limit, page.Offset, total), nil
}

func (s *payoutService) hostBooking(ctx context.Context, hostID uuid.UUID, bookingID string) (*entity.Booking, *entity.Host, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, nil, NewValidationError("invalid booking id %s", bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if booking.HostID != hostID {
		return nil, nil, &AuthorizationError{Message: "booking belongs to another host"}
	}

	host, err := s.repo.Host.FindByID(ctx, hostID)
	if err != nil {
		return nil, nil, fmt.Errorf("find host %s: %w", hostID, err)
	}
	if host == nil {
		return nil, nil, &NotFoundError{Resource: "host", ID: hostID.String()}
	}

	return booking, host, nil
}

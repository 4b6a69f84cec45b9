package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/dto/request"
	"krib-booking/internal/dto/response"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HostService interface {
	// IssueSession mints a bearer token for an active host
	IssueSession(ctx context.Context, hostID uuid.UUID, ttl time.Duration) (*entity.Session, error)
	Logout(ctx context.Context, token string) error
	RevokeSessions(ctx context.Context, hostID uuid.UUID) (int64, error)

	GetAutoApprove(ctx context.Context, hostID uuid.UUID) (*response.AutoApproveSettingsResponse, error)
	UpdateAutoApprove(ctx context.Context, hostID uuid.UUID, req *request.AutoApproveSettingsRequest) (*response.AutoApproveSettingsResponse, error)
}

type hostService struct {
	hostRepo    repository.HostRepository
	sessionRepo repository.SessionRepository
	log         *zap.Logger
	now         func() time.Time
}

func NewHostService(hostRepo repository.HostRepository, sessionRepo repository.SessionRepository, log *zap.Logger) HostService {
	return &hostService{
		hostRepo:    hostRepo,
		sessionRepo: sessionRepo,
		log:         log.With(zap.String("service", "host")),
		now:         time.Now,
	}
}

func (s *hostService) IssueSession(ctx context.Context, hostID uuid.UUID, ttl time.Duration) (*entity.Session, error) {
	if ttl <= 0 {
		return nil, NewValidationError("session ttl must be positive")
	}

	host, err := s.hostRepo.FindByID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("find host %s: %w", hostID, err)
	}
	if host == nil || !host.IsActive {
		return nil, &NotFoundError{Resource: "host", ID: hostID.String()}
	}

	now := s.now().UTC()
	session := &entity.Session{
		BaseSimple: entity.NewBaseSimple(now),
		HostID:     host.ID,
		Token:      uuid.New(),
		ExpiresAt:  now.Add(ttl),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.log.Info("Session issued",
		zap.String("host_id", host.ID.String()),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

func (s *hostService) Logout(ctx context.Context, token string) error {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return NewValidationError("invalid session token")
	}

	if err := s.sessionRepo.Revoke(ctx, parsed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "session", ID: "current"}
		}
		s.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeSessions signs the host out everywhere. Unknown hosts are a NotFoundError.
func (s *hostService) RevokeSessions(ctx context.Context, hostID uuid.UUID) (int64, error) {
	host, err := s.hostRepo.FindByID(ctx, hostID)
	if err != nil {
		return 0, fmt.Errorf("find host %s: %w", hostID, err)
	}
	if host == nil {
		return 0, &NotFoundError{Resource: "host", ID: hostID.String()}
	}

	revoked, err := s.sessionRepo.RevokeAllForHost(ctx, host.ID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	s.log.Info("Host sessions revoked",
		zap.String("host_id", host.ID.String()),
		zap.Int64("revoked", revoked),
	)
	return revoked, nil
}

func (s *hostService) GetAutoApprove(ctx context.Context, hostID uuid.UUID) (*response.AutoApproveSettingsResponse, error) {
	host, err := s.hostRepo.FindByID(ctx, hostID)
	if err != nil {
		s.log.Error("Failed to find host", zap.Error(err), zap.String("host_id", hostID.String()))
		return nil, fmt.Errorf("find host %s: %w", hostID, err)
	}
	if host == nil {
		return nil, &NotFoundError{Resource: "host", ID: hostID.String()}
	}

	resp := response.AutoApproveSettingsToResponse(host)
	return &resp, nil
}

func (s *hostService) UpdateAutoApprove(ctx context.Context, hostID uuid.UUID, req *request.AutoApproveSettingsRequest) (*response.AutoApproveSettingsResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	host, err := s.hostRepo.UpdateAutoApprove(ctx, hostID, *req.Enabled, utils.RoundMoney(*req.AmountLimit))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "host", ID: hostID.String()}
		}
		s.log.Error("Failed to update auto-approve settings", zap.Error(err), zap.String("host_id", hostID.String()))
		return nil, fmt.Errorf("update auto-approve settings: %w", err)
	}

	s.log.Info("Auto-approve settings updated",
		zap.String("host_id", hostID.String()),
		zap.Bool("enabled", host.AutoApproveBookings),
		zap.Float64("limit", host.AutoApproveAmountLimit),
	)

	resp := response.AutoApproveSettingsToResponse(host)
	return &resp, nil
}

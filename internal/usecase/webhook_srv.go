package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/dto/request"
	"krib-booking/internal/dto/response"
	"krib-booking/internal/webhook"
	"krib-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService manages the subscriptions of the calling external service
type WebhookService interface {
	Register(ctx context.Context, serviceID uuid.UUID, req *request.RegisterWebhookRequest) (*response.WebhookResponse, error)
	List(ctx context.Context, serviceID uuid.UUID, req *request.ListWebhooksRequest) (*response.PaginatedResponse[response.WebhookResponse], error)
	Get(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookResponse, error)
	Update(ctx context.Context, serviceID uuid.UUID, id string, req *request.UpdateWebhookRequest) (*response.WebhookResponse, error)
	Delete(ctx context.Context, serviceID uuid.UUID, id string) error
	Toggle(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookResponse, error)
	Test(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookTestResponse, error)
}

type webhookService struct {
	store             repository.WebhookRepository
	deliverer         WebhookDeliverer
	maxFailedAttempts int
	testTimeout       time.Duration
	log               *zap.Logger
	now               func() time.Time
}

// DefaultTestDeliveryTimeout stays below the 60s server write timeout
const DefaultTestDeliveryTimeout = 45 * time.Second

func NewWebhookService(store repository.WebhookRepository, deliverer WebhookDeliverer, maxFailedAttempts int, testTimeout time.Duration, log *zap.Logger) WebhookService {
	if maxFailedAttempts < 1 {
		maxFailedAttempts = entity.DefaultMaxFailedAttempts
	}
	if testTimeout <= 0 {
		testTimeout = DefaultTestDeliveryTimeout
	}

	return &webhookService{
		store:             store,
		deliverer:         deliverer,
		maxFailedAttempts: maxFailedAttempts,
		testTimeout:       testTimeout,
		log:               log.With(zap.String("service", "webhook")),
		now:               time.Now,
	}
}

func (s *webhookService) Register(ctx context.Context, serviceID uuid.UUID, req *request.RegisterWebhookRequest) (*response.WebhookResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Webhook registration validation failed", zap.Any("errors", errs))
		return nil, NewFieldValidationError(errs)
	}

	events, err := entity.ParseWebhookEvents(req.Events)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error(), Fields: map[string]string{"Events": err.Error()}}
	}

	webhookURL, err := normalizeWebhookURL(req.WebhookURL)
	if err != nil {
		return nil, err
	}

	maxFailed := s.maxFailedAttempts
	if req.MaxFailedAttempts != nil {
		maxFailed = *req.MaxFailedAttempts
	}

	now := s.now().UTC()
	sub := &entity.WebhookSubscription{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		ExternalServiceID: &serviceID,
		AgentName:         strings.TrimSpace(req.AgentName),
		WebhookURL:        webhookURL,
		Events:            events,
		Secret:            req.APIKey,
		IsActive:          true,
		MaxFailedAttempts: maxFailed,
	}

	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateWebhookURL) {
			return nil, &ConflictError{Message: fmt.Sprintf("webhook url %s is already registered", webhookURL)}
		}
		s.log.Error("Failed to register webhook", zap.Error(err), zap.String("agent_name", sub.AgentName))
		return nil, fmt.Errorf("register webhook: %w", err)
	}

	s.log.Info("Webhook registered",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("agent_name", sub.AgentName),
		zap.Int("events", len(sub.Events)),
	)

	resp := response.WebhookToResponse(sub)
	return &resp, nil
}

func (s *webhookService) List(ctx context.Context, serviceID uuid.UUID, req *request.ListWebhooksRequest) (*response.PaginatedResponse[response.WebhookResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	page := req.PaginatedRequest.Normalize()
	subs, total, err := s.store.List(ctx, repository.WebhookFilter{
		ExternalServiceID: &serviceID,
		ActiveOnly:        req.ActiveOnly,
		AgentName:         req.AgentName,
		Limit:             page.Limit,
		Offset:            page.Offset,
	})
	if err != nil {
		s.log.Error("Failed to list webhooks", zap.Error(err))
		return nil, fmt.Errorf("list webhooks: %w", err)
	}

	data := make([]response.WebhookResponse, 0, len(subs))
	for _, sub := range subs {
		data = append(data, response.WebhookToResponse(sub))
	}

	return response.NewPaginatedResponse(data, page.Limit, page.Offset, total), nil
}

func (s *webhookService) Get(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookResponse, error) {
	sub, err := s.owned(ctx, serviceID, id)
	if err != nil {
		return nil, err
	}

	resp := response.WebhookToResponse(sub)
	return &resp, nil
}

func (s *webhookService) Update(ctx context.Context, serviceID uuid.UUID, id string, req *request.UpdateWebhookRequest) (*response.WebhookResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, NewFieldValidationError(errs)
	}

	sub, err := s.owned(ctx, serviceID, id)
	if err != nil {
		return nil, err
	}

	if req.AgentName != nil {
		sub.AgentName = strings.TrimSpace(*req.AgentName)
	}
	if req.WebhookURL != nil {
		webhookURL, err := normalizeWebhookURL(*req.WebhookURL)
		if err != nil {
			return nil, err
		}
		sub.WebhookURL = webhookURL
	}
	if req.Events != nil {
		events, err := entity.ParseWebhookEvents(req.Events)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error(), Fields: map[string]string{"Events": err.Error()}}
		}
		sub.Events = events
	}
	if req.MaxFailedAttempts != nil {
		sub.MaxFailedAttempts = *req.MaxFailedAttempts
	}
	sub.Touch(s.now())

	if err := s.store.Update(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateWebhookURL):
			return nil, &ConflictError{Message: fmt.Sprintf("webhook url %s is already registered", sub.WebhookURL)}
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Resource: "webhook", ID: id}
		}
		s.log.Error("Failed to update webhook", zap.Error(err), zap.String("subscription_id", id))
		return nil, fmt.Errorf("update webhook %s: %w", id, err)
	}
	if !sub.IsActive && sub.FailureLimitReached() {
		s.log.Warn("Webhook deactivated by lowered failure threshold",
			zap.String("subscription_id", id),
			zap.Int("failed_attempts", sub.FailedAttempts),
			zap.Int("max_failed_attempts", sub.MaxFailedAttempts),
		)
	}

	resp := response.WebhookToResponse(sub)
	return &resp, nil
}

func (s *webhookService) Delete(ctx context.Context, serviceID uuid.UUID, id string) error {
	sub, err := s.owned(ctx, serviceID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, sub.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "webhook", ID: id}
		}
		s.log.Error("Failed to delete webhook", zap.Error(err), zap.String("subscription_id", id))
		return fmt.Errorf("delete webhook %s: %w", id, err)
	}

	s.log.Info("Webhook deleted", zap.String("subscription_id", id))
	return nil
}

// Toggle flips the active flag. Reactivation starts from a clean failure count.
func (s *webhookService) Toggle(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookResponse, error) {
	sub, err := s.owned(ctx, serviceID, id)
	if err != nil {
		return nil, err
	}

	toggled, err := s.store.Toggle(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "webhook", ID: id}
		}
		return nil, fmt.Errorf("toggle webhook %s: %w", id, err)
	}

	s.log.Info("Webhook toggled",
		zap.String("subscription_id", id),
		zap.Bool("is_active", toggled.IsActive),
	)

	resp := response.WebhookToResponse(toggled)
	return &resp, nil
}

// Test sends a test.webhook event through the regular retry path and waits
// for the outcome. Its result counts toward the subscription's health. The
// whole cycle is cut off at testTimeout so the caller always gets an answer;
// an attempt still in flight then is reported as failed.
func (s *webhookService) Test(ctx context.Context, serviceID uuid.UUID, id string) (*response.WebhookTestResponse, error) {
	sub, err := s.owned(ctx, serviceID, id)
	if err != nil {
		return nil, err
	}

	deliverCtx, cancel := context.WithTimeout(ctx, s.testTimeout)
	defer cancel()

	result := s.deliverer.DeliverTo(deliverCtx, sub, webhook.Event{
		Type: entity.EventTestWebhook,
		Data: map[string]any{
			"message":    "Test delivery from Krib",
			"agent_name": sub.AgentName,
		},
	})

	resp := response.WebhookTestToResponse(result)
	return &resp, nil
}

func (s *webhookService) owned(ctx context.Context, serviceID uuid.UUID, id string) (*entity.WebhookSubscription, error) {
	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, NewValidationError("invalid webhook id %s", id)
	}

	sub, err := s.store.FindByID(ctx, subID)
	if err != nil {
		s.log.Error("Failed to find webhook", zap.Error(err), zap.String("subscription_id", id))
		return nil, fmt.Errorf("find webhook %s: %w", id, err)
	}
	if sub == nil {
		return nil, &NotFoundError{Resource: "webhook", ID: id}
	}
	if sub.ExternalServiceID == nil || *sub.ExternalServiceID != serviceID {
		return nil, &AuthorizationError{Message: "webhook belongs to another service"}
	}
	return sub, nil
}

// normalizeWebhookURL accepts absolute http(s) URLs only
func normalizeWebhookURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", &ValidationError{Reason: "webhook_url must be an absolute URL", Fields: map[string]string{"WebhookURL": "Must be a valid absolute URL"}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Reason: "webhook_url must use http or https", Fields: map[string]string{"WebhookURL": "Must use http or https"}}
	}
	return u.String(), nil
}

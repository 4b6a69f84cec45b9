package response

import (
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/webhook"
	"krib-booking/pkg/utils"
)

// WebhookResponse never carries the secret, only its prefix
type WebhookResponse struct {
	ID                 string                `json:"id"`
	AgentName          string                `json:"agent_name"`
	WebhookURL         string                `json:"webhook_url"`
	Events             []entity.WebhookEvent `json:"events"`
	KeyPrefix          string                `json:"key_prefix"`
	IsActive           bool                  `json:"is_active"`
	FailedAttempts     int                   `json:"failed_attempts"`
	MaxFailedAttempts  int                   `json:"max_failed_attempts"`
	LastSuccessfulCall *time.Time            `json:"last_successful_call,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

type WebhookTestResponse struct {
	SubscriptionID string                          `json:"subscription_id"`
	Succeeded      bool                            `json:"succeeded"`
	Deactivated    bool                            `json:"deactivated"`
	Attempts       []entity.WebhookDeliveryAttempt `json:"attempts"`
}

func WebhookToResponse(s *entity.WebhookSubscription) WebhookResponse {
	return WebhookResponse{
		ID:                 s.ID.String(),
		AgentName:          s.AgentName,
		WebhookURL:         s.WebhookURL,
		Events:             s.Events,
		KeyPrefix:          utils.KeyPrefix(s.Secret),
		IsActive:           s.IsActive,
		FailedAttempts:     s.FailedAttempts,
		MaxFailedAttempts:  s.MaxFailedAttempts,
		LastSuccessfulCall: s.LastSuccessfulCall,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func WebhookTestToResponse(r webhook.SubscriberResult) WebhookTestResponse {
	return WebhookTestResponse{
		SubscriptionID: r.SubscriptionID.String(),
		Succeeded:      r.Succeeded,
		Deactivated:    r.Deactivated,
		Attempts:       r.Attempts,
	}
}

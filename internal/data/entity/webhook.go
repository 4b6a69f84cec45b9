package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type WebhookEvent string

const (
	EventBookingCreated     WebhookEvent = "booking.created"
	EventBookingConfirmed   WebhookEvent = "booking.confirmed"
	EventBookingCancelled   WebhookEvent = "booking.cancelled"
	EventPaymentReceived    WebhookEvent = "payment.received"
	EventHostResponseNeeded WebhookEvent = "host.response_needed"
	EventTestWebhook        WebhookEvent = "test.webhook"
)

const DefaultMaxFailedAttempts = 5

var webhookEvents = []WebhookEvent{
	EventBookingCreated,
	EventBookingConfirmed,
	EventBookingCancelled,
	EventPaymentReceived,
	EventHostResponseNeeded,
	EventTestWebhook,
}

func WebhookEvents() []WebhookEvent {
	out := make([]WebhookEvent, len(webhookEvents))
	copy(out, webhookEvents)
	return out
}

func (e WebhookEvent) Valid() bool {
	for _, known := range webhookEvents {
		if e == known {
			return true
		}
	}
	return false
}

// ParseWebhookEvents rejects unknown event names and collapses duplicates
func ParseWebhookEvents(raw []string) ([]WebhookEvent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one event is required")
	}

	seen := make(map[WebhookEvent]bool, len(raw))
	events := make([]WebhookEvent, 0, len(raw))
	for _, name := range raw {
		ev := WebhookEvent(name)
		if !ev.Valid() {
			return nil, fmt.Errorf("unknown webhook event %q, expected one of %v", name, WebhookEvents())
		}
		if seen[ev] {
			continue
		}
		seen[ev] = true
		events = append(events, ev)
	}

	return events, nil
}

type WebhookSubscription struct {
	BaseNoDelete
	ExternalServiceID  *uuid.UUID     `db:"external_service_id"`
	AgentName          string         `db:"agent_name"`
	WebhookURL         string         `db:"webhook_url"`
	Events             []WebhookEvent `db:"events"`
	Secret             string         `db:"secret"`
	IsActive           bool           `db:"is_active"`
	FailedAttempts     int            `db:"failed_attempts"`
	MaxFailedAttempts  int            `db:"max_failed_attempts"`
	LastSuccessfulCall *time.Time     `db:"last_successful_call"`
}

// FailureLimitReached is the auto-disable condition. A subscription that
// reaches it must not stay active.
func (s *WebhookSubscription) FailureLimitReached() bool {
	return s.FailedAttempts >= s.MaxFailedAttempts
}

func (s *WebhookSubscription) Subscribes(ev WebhookEvent) bool {
	for _, e := range s.Events {
		if e == ev {
			return true
		}
	}
	return false
}

// WebhookDeliveryAttempt is one HTTP call to one subscriber. Not persisted.
type WebhookDeliveryAttempt struct {
	EventType       WebhookEvent  `json:"event_type"`
	SubscriptionID  uuid.UUID     `json:"subscription_id"`
	AttemptNumber   int           `json:"attempt_number"`
	HTTPStatus      *int          `json:"http_status,omitempty"`
	ResponseSnippet string        `json:"response_snippet,omitempty"`
	Error           string        `json:"error,omitempty"`
	Latency         time.Duration `json:"latency"`
	Succeeded       bool          `json:"succeeded"`
}

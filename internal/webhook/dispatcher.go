package webhook

import (
	"context"
	"fmt"
	"time"

	"krib-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderSignature = "X-Webhook-Signature"
	HeaderID        = "X-Webhook-ID"
	HeaderTimestamp = "X-Webhook-Timestamp"

	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
	DefaultConcurrency = 10
)

// SubscriptionStore is the subset of the subscription registry the
// dispatcher needs. Health counters must be updated atomically by the store.
type SubscriptionStore interface {
	ListActiveForEvent(ctx context.Context, event entity.WebhookEvent) ([]*entity.WebhookSubscription, error)
	RecordSuccess(ctx context.Context, id uuid.UUID) error
	// RecordFailure increments the failure counter and reports whether the
	// subscription got deactivated by this failure.
	RecordFailure(ctx context.Context, id uuid.UUID) (bool, error)
}

type Event struct {
	Type       entity.WebhookEvent
	BookingID  string
	PropertyID string
	HostID     string
	Data       map[string]any
}

// Payload is the JSON body every subscriber receives.
type Payload struct {
	EventType        entity.WebhookEvent `json:"event_type"`
	BookingID        string              `json:"booking_id"`
	PropertyID       string              `json:"property_id"`
	HostID           string              `json:"host_id"`
	ExternalAgentURL string              `json:"external_agent_url"`
	Data             map[string]any      `json:"data"`
	Timestamp        string              `json:"timestamp"`
	SubscriptionID   string              `json:"subscription_id"`
}

type SubscriberResult struct {
	SubscriptionID uuid.UUID                       `json:"subscription_id"`
	AgentName      string                          `json:"agent_name"`
	Attempts       []entity.WebhookDeliveryAttempt `json:"attempts"`
	Succeeded      bool                            `json:"succeeded"`
	Deactivated    bool                            `json:"deactivated"`
}

type DispatchReport struct {
	EventType entity.WebhookEvent `json:"event_type"`
	Results   []SubscriberResult  `json:"results"`
}

func (r *DispatchReport) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded {
			n++
		}
	}
	return n
}

type DispatcherConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	Concurrency int
}

// Dispatcher fans an event out to every active subscription listening for it.
// Subscribers are delivered to in parallel; attempts for one subscriber are
// serial with exponential back-off between them.
type Dispatcher struct {
	store  SubscriptionStore
	client *Client
	signer *Signer
	log    *zap.Logger
	cfg    DispatcherConfig

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewDispatcher(store SubscriptionStore, client *Client, signer *Signer, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &Dispatcher{
		store:  store,
		client: client,
		signer: signer,
		log:    log.With(zap.String("component", "webhook_dispatcher")),
		cfg:    cfg,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// Backoff is the wait after the attempt with the given zero-based index:
// base, 2*base, 4*base, ...
func (d *Dispatcher) Backoff(attemptIndex int) time.Duration {
	return d.cfg.BackoffBase * time.Duration(1<<attemptIndex)
}

// Dispatch delivers ev to all matching subscriptions. Having no subscribers
// is not an error. The only error returned is a failure to list them;
// delivery failures are recorded per subscriber in the report.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*DispatchReport, error) {
	report := &DispatchReport{EventType: ev.Type}

	subs, err := d.store.ListActiveForEvent(ctx, ev.Type)
	if err != nil {
		d.log.Error("Failed to list webhook subscriptions",
			zap.Error(err),
			zap.String("event_type", string(ev.Type)),
		)
		return report, fmt.Errorf("list subscriptions for %s: %w", ev.Type, err)
	}

	if len(subs) == 0 {
		d.log.Debug("No webhook subscribers", zap.String("event_type", string(ev.Type)))
		return report, nil
	}

	report.Results = make([]SubscriberResult, len(subs))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			report.Results[i] = d.DeliverTo(ctx, sub, ev)
			return nil
		})
	}
	g.Wait()

	d.log.Info("Webhook dispatch finished",
		zap.String("event_type", string(ev.Type)),
		zap.String("booking_id", ev.BookingID),
		zap.Int("subscribers", len(subs)),
		zap.Int("delivered", report.Delivered()),
	)

	return report, nil
}

// DeliverTo runs the full retry cycle for one subscription and updates its
// health counters.
func (d *Dispatcher) DeliverTo(ctx context.Context, sub *entity.WebhookSubscription, ev Event) SubscriberResult {
	result := SubscriberResult{SubscriptionID: sub.ID, AgentName: sub.AgentName}
	log := d.log.With(
		zap.String("subscription_id", sub.ID.String()),
		zap.String("agent_name", sub.AgentName),
		zap.String("event_type", string(ev.Type)),
	)

	timestamp := d.now().UTC().Format(time.RFC3339)
	payload := Payload{
		EventType:        ev.Type,
		BookingID:        ev.BookingID,
		PropertyID:       ev.PropertyID,
		HostID:           ev.HostID,
		ExternalAgentURL: sub.WebhookURL,
		Data:             ev.Data,
		Timestamp:        timestamp,
		SubscriptionID:   sub.ID.String(),
	}
	if payload.Data == nil {
		payload.Data = map[string]any{}
	}

	body, signature, err := d.signer.SignPayload(payload)
	if err != nil {
		// a payload that cannot be encoded will never succeed, so no retries
		log.Error("Failed to build webhook payload", zap.Error(err))
		result.Deactivated = d.recordFailure(ctx, sub, log)
		return result
	}

	req := DeliveryRequest{
		URL:  sub.WebhookURL,
		Body: body,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + sub.Secret,
			HeaderEvent:     string(ev.Type),
			HeaderSignature: signature,
			HeaderID:        sub.ID.String(),
			HeaderTimestamp: timestamp,
		},
	}

	// waits fall between attempts only: with 3 attempts they are base and
	// 2*base, and the 4*base step would follow a fourth attempt that never runs
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		res := d.client.Post(ctx, req)

		record := entity.WebhookDeliveryAttempt{
			EventType:       ev.Type,
			SubscriptionID:  sub.ID,
			AttemptNumber:   attempt,
			HTTPStatus:      res.StatusCode,
			ResponseSnippet: res.Snippet,
			Latency:         res.Latency,
			Succeeded:       res.Succeeded(),
		}
		if res.Err != nil {
			record.Error = res.Err.Error()
		}
		result.Attempts = append(result.Attempts, record)

		fields := []zap.Field{
			zap.Int("attempt", attempt),
			zap.Duration("latency", res.Latency),
		}
		if res.StatusCode != nil {
			fields = append(fields, zap.Int("status", *res.StatusCode))
		}

		if record.Succeeded {
			log.Info("Webhook delivered", fields...)
			result.Succeeded = true
			// the counter reset must land even if the caller has gone away
			if err := d.store.RecordSuccess(context.WithoutCancel(ctx), sub.ID); err != nil {
				log.Error("Failed to record webhook success", zap.Error(err))
			}
			return result
		}

		log.Warn("Webhook attempt failed", append(fields, zap.Error(res.Err))...)

		if attempt < d.cfg.MaxAttempts {
			if err := d.sleep(ctx, d.Backoff(attempt-1)); err != nil {
				log.Warn("Webhook retries interrupted", zap.Error(err))
				break
			}
		}
	}

	result.Deactivated = d.recordFailure(ctx, sub, log)
	return result
}

func (d *Dispatcher) recordFailure(ctx context.Context, sub *entity.WebhookSubscription, log *zap.Logger) bool {
	// health must be recorded even if the dispatch context is already done
	ctx = context.WithoutCancel(ctx)

	deactivated, err := d.store.RecordFailure(ctx, sub.ID)
	if err != nil {
		log.Error("Failed to record webhook failure", zap.Error(err))
		return false
	}
	if deactivated {
		log.Warn("Webhook subscription deactivated after repeated failures",
			zap.Int("max_failed_attempts", sub.MaxFailedAttempts),
		)
	}
	return deactivated
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

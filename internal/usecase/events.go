package usecase

import (
	"context"
	"fmt"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/notify"
	"krib-booking/internal/webhook"
	"krib-booking/pkg/utils"
	"krib-booking/pkg/worker"

	"go.uber.org/zap"
)

// EventPublisher hands side effects off to the background. Callers never
// learn whether delivery succeeded.
type EventPublisher interface {
	Publish(ev webhook.Event)
	NotifyHost(n notify.HostNotification)
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, ev webhook.Event) (*webhook.DispatchReport, error)
}

type TaskSubmitter interface {
	Submit(task worker.Task) bool
}

type asyncPublisher struct {
	dispatcher EventDispatcher
	notifier   notify.Notifier
	tasks      TaskSubmitter
	log        *zap.Logger
}

func NewEventPublisher(dispatcher EventDispatcher, notifier notify.Notifier, tasks TaskSubmitter, log *zap.Logger) EventPublisher {
	return &asyncPublisher{
		dispatcher: dispatcher,
		notifier:   notifier,
		tasks:      tasks,
		log:        log.With(zap.String("component", "event_publisher")),
	}
}

func (p *asyncPublisher) Publish(ev webhook.Event) {
	task := worker.Task{
		Name: "webhook:" + string(ev.Type),
		Run: func(ctx context.Context) error {
			_, err := p.dispatcher.Dispatch(ctx, ev)
			return err
		},
	}

	if !p.tasks.Submit(task) {
		p.log.Warn("Webhook event dropped, worker queue unavailable",
			zap.String("event_type", string(ev.Type)),
			zap.String("booking_id", ev.BookingID),
		)
	}
}

func (p *asyncPublisher) NotifyHost(n notify.HostNotification) {
	task := worker.Task{
		Name: "notify:host",
		Run: func(ctx context.Context) error {
			return p.notifier.NotifyHost(ctx, n)
		},
	}

	if !p.tasks.Submit(task) {
		p.log.Warn("Host notification dropped, worker queue unavailable",
			zap.String("booking_id", n.Booking.ID.String()),
		)
	}
}

// bookingEvent builds the webhook event for a booking in its current state
func bookingEvent(t entity.WebhookEvent, b *entity.Booking, extra map[string]any) webhook.Event {
	data := map[string]any{
		"status":         string(b.Status),
		"payment_status": string(b.PaymentStatus),
		"guest_name":     b.GuestName,
		"check_in":       utils.FormatDate(b.CheckIn),
		"check_out":      utils.FormatDate(b.CheckOut),
		"nights":         b.Nights(),
		"guests":         b.Guests,
		"total_amount":   fmt.Sprintf("%.2f", b.TotalAmount),
	}
	for k, v := range extra {
		data[k] = v
	}

	return webhook.Event{
		Type:       t,
		BookingID:  b.ID.String(),
		PropertyID: b.PropertyID.String(),
		HostID:     b.HostID.String(),
		Data:       data,
	}
}

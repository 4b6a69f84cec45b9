package notify

import (
	"context"
	"fmt"
	"html"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/mail"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

// HostNotification describes a booking a host has to look at
type HostNotification struct {
	Host     *entity.Host
	Property *entity.Property
	Booking  *entity.Booking
}

type Notifier interface {
	NotifyHost(ctx context.Context, n HostNotification) error
}

type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type EmailNotifier struct {
	sender Sender
	log    *zap.Logger
}

func NewEmailNotifier(sender Sender, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, log: log.With(zap.String("notifier", "email"))}
}

func (n *EmailNotifier) NotifyHost(ctx context.Context, hn HostNotification) error {
	msg := mail.Message{
		To:      hn.Host.Email,
		Subject: subject(hn),
		Body:    body(hn),
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify host %s: %w", hn.Host.ID, err)
	}

	n.log.Info("Host notified",
		zap.String("host_id", hn.Host.ID.String()),
		zap.String("booking_id", hn.Booking.ID.String()),
	)
	return nil
}

// LogNotifier is used when no SMTP relay is configured
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) NotifyHost(ctx context.Context, hn HostNotification) error {
	n.log.Info("Host notification",
		zap.String("host_id", hn.Host.ID.String()),
		zap.String("booking_id", hn.Booking.ID.String()),
		zap.String("subject", subject(hn)),
	)
	return nil
}

func subject(hn HostNotification) string {
	if hn.Booking.Status == entity.BookingStatusConfirmed {
		return fmt.Sprintf("New confirmed booking for %s", hn.Property.Title)
	}
	return fmt.Sprintf("Booking request for %s needs your response", hn.Property.Title)
}

func body(hn HostNotification) string {
	b := hn.Booking
	return fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>%s booked <strong>%s</strong> from %s to %s (%d nights, %d guests).</p>"+
			"<p>Total: %.2f</p>"+
			"<p>Status: %s</p>",
		html.EscapeString(hn.Host.Name),
		html.EscapeString(b.GuestName),
		html.EscapeString(hn.Property.Title),
		utils.FormatDate(b.CheckIn),
		utils.FormatDate(b.CheckOut),
		b.Nights(),
		b.Guests,
		b.TotalAmount,
		b.Status,
	)
}

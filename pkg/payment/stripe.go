package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Event types the platform reacts to
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
	EventTransferPaid           = "transfer.paid"
	EventTransferFailed         = "transfer.failed"
	EventAccountUpdated         = "account.updated"
)

var ErrInvalidSignature = errors.New("invalid payment webhook signature")

type PaymentIntentInput struct {
	Amount     float64
	Currency   string
	BookingID  string
	GuestEmail string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type TransferInput struct {
	Amount      float64
	Currency    string
	Destination string
	BookingID   string
	// PayoutID keys the transfer so a retried request cannot pay twice
	PayoutID string
}

type AccountStatus struct {
	ID             string
	Verified       bool
	PayoutsEnabled bool
}

// Event is a processor callback reduced to the fields the platform uses.
// Only the fields relevant to Type are set.
type Event struct {
	ID              string
	Type            string
	Payload         []byte
	PaymentIntentID string
	BookingID       string
	FailureMessage  string
	AmountRefunded  float64
	FullyRefunded   bool
	TransferID      string
	Account         *AccountStatus
}

// Stripe talks to the Stripe API with the configured secret key
type Stripe struct {
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{webhookSecret: webhookSecret}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// Message extracts the processor's user-facing message from an API error
func Message(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(toMinorUnits(in.Amount)),
		Currency:     stripe.String(in.Currency),
		ReceiptEmail: stripe.String(in.GuestEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", in.BookingID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent for booking %s: %w", in.BookingID, err)
	}

	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// Refund refunds amount of the intent; zero refunds everything. A booking
// carries one intent and is refunded at most once, so the intent keys the
// request: a concurrent second cancellation gets the first refund back (or an
// idempotency error when its amount differs) instead of a second refund.
func (s *Stripe) Refund(ctx context.Context, paymentIntentID string, amount float64) (string, error) {
	r, err := refund.New(refundParams(ctx, paymentIntentID, amount))
	if err != nil {
		return "", fmt.Errorf("refund payment intent %s: %w", paymentIntentID, err)
	}

	return r.ID, nil
}

func refundParams(ctx context.Context, paymentIntentID string, amount float64) *stripe.RefundParams {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(toMinorUnits(amount))
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund_" + paymentIntentID)
	return params
}

func (s *Stripe) Transfer(ctx context.Context, in TransferInput) (string, error) {
	t, err := transfer.New(transferParams(ctx, in))
	if err != nil {
		return "", fmt.Errorf("transfer to %s: %w", in.Destination, err)
	}

	return t.ID, nil
}

func transferParams(ctx context.Context, in TransferInput) *stripe.TransferParams {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(toMinorUnits(in.Amount)),
		Currency:      stripe.String(in.Currency),
		Destination:   stripe.String(in.Destination),
		TransferGroup: stripe.String("booking_" + in.BookingID),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", in.BookingID)
	if in.PayoutID != "" {
		params.AddMetadata("payout_id", in.PayoutID)
		params.SetIdempotencyKey("payout_" + in.PayoutID)
	}
	return params
}

func accountStatus(acct *stripe.Account) *AccountStatus {
	return &AccountStatus{
		ID:             acct.ID,
		Verified:       acct.DetailsSubmitted && acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}
}

// ParseEvent verifies the Stripe-Signature header and decodes the object
// carried by the event types in this package.
func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodeEvent(ev, payload)
}

func decodeEvent(ev stripe.Event, payload []byte) (*Event, error) {
	out := &Event{ID: ev.ID, Type: string(ev.Type), Payload: payload}
	if ev.Data == nil {
		return out, nil
	}
	raw := ev.Data.Raw

	switch out.Type {
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.BookingID = pi.Metadata["booking_id"]
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}

	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		out.AmountRefunded = fromMinorUnits(ch.AmountRefunded)
		out.FullyRefunded = ch.Refunded

	case EventTransferPaid, EventTransferFailed:
		var t stripe.Transfer
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode transfer: %w", err)
		}
		out.TransferID = t.ID
		out.BookingID = t.Metadata["booking_id"]
		if out.Type == EventTransferFailed {
			out.FailureMessage = "transfer failed at payment processor"
		}

	case EventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(raw, &acct); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out.Account = accountStatus(&acct)
	}

	return out, nil
}

package usecase

import (
	"context"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/webhook"
	"krib-booking/pkg/payment"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

// PaymentGateway is the payment processor as seen by the services
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, in payment.PaymentIntentInput) (*payment.PaymentIntent, error)
	Refund(ctx context.Context, paymentIntentID string, amount float64) (string, error)
	Transfer(ctx context.Context, in payment.TransferInput) (string, error)
	ParseEvent(payload []byte, signature string) (*payment.Event, error)
}

// WebhookDeliverer runs a full delivery cycle to one subscription
type WebhookDeliverer interface {
	DeliverTo(ctx context.Context, sub *entity.WebhookSubscription, ev webhook.Event) webhook.SubscriberResult
}

// Infra groups the collaborators that are not repositories
type Infra struct {
	Payments PaymentGateway
	Webhooks WebhookDeliverer
	Events   EventPublisher
}

type Service struct {
	Host         HostService
	Property     PropertyService
	Booking      BookingService
	Webhook      WebhookService
	Payout       PayoutService
	PaymentEvent PaymentEventService
}

func NewService(repo *repository.Repository, config *utils.Config, infra Infra, log *zap.Logger) *Service {
	pricing := calc.NewPricingCalculator(PricingRules(config.Pricing))
	policy := PayoutPolicy(config.Payout)
	currency := config.Stripe.Currency

	return &Service{
		Host:         NewHostService(repo.Host, repo.Session, log),
		Property:     NewPropertyService(repo, pricing, log),
		Booking:      NewBookingService(repo, pricing, infra.Payments, infra.Events, currency, log),
		Webhook:      NewWebhookService(repo.Webhook, infra.Webhooks, config.Webhook.MaxFailedAttempts, config.Webhook.TestTimeout, log),
		Payout:       NewPayoutService(repo, policy, infra.Payments, currency, log),
		PaymentEvent: NewPaymentEventService(repo, infra.Payments, infra.Events, log),
	}
}

func PricingRules(cfg utils.PricingConfig) calc.PricingRules {
	return calc.PricingRules{
		CleaningFee:        cfg.CleaningFee,
		ServiceFeeRate:     cfg.ServiceFeeRate,
		TourismTaxPerNight: cfg.TourismTaxPerNight,
		PromoCode:          cfg.PromoCode,
		PromoRate:          cfg.PromoRate,
	}
}

func PayoutPolicy(cfg utils.PayoutConfig) calc.PayoutPolicy {
	policy := calc.DefaultPayoutPolicy()
	if cfg.FeePercentage > 0 {
		policy.FeePercentage = cfg.FeePercentage
	}
	if cfg.DelayDays >= 0 {
		policy.DelayDays = cfg.DelayDays
	}
	return policy
}

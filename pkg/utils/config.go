package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Webhook   WebhookConfig
	Stripe    StripeConfig
	Payout    PayoutConfig
	Pricing   PricingConfig
	Worker    WorkerConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	LogLevel    string
	AutoMigrate bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type WebhookConfig struct {
	SigningSecret     string
	MaxAttempts       int
	BackoffBase       time.Duration
	Timeout           time.Duration
	MaxFailedAttempts int
	Concurrency       int

	// TestTimeout bounds the synchronous test delivery; keep it under the
	// server's write timeout
	TestTimeout time.Duration
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type PayoutConfig struct {
	FeePercentage float64
	DelayDays     int
	SweepInterval time.Duration
}

type PricingConfig struct {
	CleaningFee        float64
	ServiceFeeRate     float64
	TourismTaxPerNight float64
	PromoCode          string
	PromoRate          float64
}

type WorkerConfig struct {
	Workers   int
	QueueSize int

	// MaintenanceInterval drives booking completion and session cleanup
	MaintenanceInterval time.Duration
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// RateLimitConfig holds per-minute request budgets for the external API.
type RateLimitConfig struct {
	Search       int
	Availability int
	Pricing      int
	Booking      int
	AutoApprove  int
	Webhooks     int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "krib-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("AUTO_MIGRATE", true)
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("WEBHOOK_MAX_ATTEMPTS", 3)
	viper.SetDefault("WEBHOOK_BACKOFF_BASE", "1s")
	viper.SetDefault("WEBHOOK_TIMEOUT", "30s")
	viper.SetDefault("WEBHOOK_MAX_FAILED_ATTEMPTS", 5)
	viper.SetDefault("WEBHOOK_CONCURRENCY", 10)
	viper.SetDefault("WEBHOOK_TEST_TIMEOUT", "45s")
	viper.SetDefault("STRIPE_CURRENCY", "usd")
	viper.SetDefault("PAYOUT_FEE_PERCENTAGE", 15.0)
	viper.SetDefault("PAYOUT_DELAY_DAYS", 1)
	viper.SetDefault("PAYOUT_SWEEP_INTERVAL", "1h")
	viper.SetDefault("PRICING_CLEANING_FEE", 75.0)
	viper.SetDefault("PRICING_SERVICE_FEE_RATE", 0.03)
	viper.SetDefault("PRICING_TOURISM_TAX_PER_NIGHT", 15.0)
	viper.SetDefault("PRICING_PROMO_CODE", "KRIB10")
	viper.SetDefault("PRICING_PROMO_RATE", 0.10)
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("WORKER_QUEUE_SIZE", 256)
	viper.SetDefault("WORKER_MAINTENANCE_INTERVAL", "1h")
	viper.SetDefault("RATE_LIMIT_SEARCH", 100)
	viper.SetDefault("RATE_LIMIT_AVAILABILITY", 150)
	viper.SetDefault("RATE_LIMIT_PRICING", 100)
	viper.SetDefault("RATE_LIMIT_BOOKING", 50)
	viper.SetDefault("RATE_LIMIT_AUTO_APPROVE", 20)
	viper.SetDefault("RATE_LIMIT_WEBHOOKS", 30)

	// .env bersifat opsional, environment tetap dibaca
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			LogLevel:    viper.GetString("LOG_LEVEL"),
			AutoMigrate: viper.GetBool("AUTO_MIGRATE"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Webhook: WebhookConfig{
			SigningSecret:     viper.GetString("WEBHOOK_SIGNING_SECRET"),
			MaxAttempts:       viper.GetInt("WEBHOOK_MAX_ATTEMPTS"),
			BackoffBase:       viper.GetDuration("WEBHOOK_BACKOFF_BASE"),
			Timeout:           viper.GetDuration("WEBHOOK_TIMEOUT"),
			MaxFailedAttempts: viper.GetInt("WEBHOOK_MAX_FAILED_ATTEMPTS"),
			Concurrency:       viper.GetInt("WEBHOOK_CONCURRENCY"),
			TestTimeout:       viper.GetDuration("WEBHOOK_TEST_TIMEOUT"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      viper.GetString("STRIPE_CURRENCY"),
		},
		Payout: PayoutConfig{
			FeePercentage: viper.GetFloat64("PAYOUT_FEE_PERCENTAGE"),
			DelayDays:     viper.GetInt("PAYOUT_DELAY_DAYS"),
			SweepInterval: viper.GetDuration("PAYOUT_SWEEP_INTERVAL"),
		},
		Pricing: PricingConfig{
			CleaningFee:        viper.GetFloat64("PRICING_CLEANING_FEE"),
			ServiceFeeRate:     viper.GetFloat64("PRICING_SERVICE_FEE_RATE"),
			TourismTaxPerNight: viper.GetFloat64("PRICING_TOURISM_TAX_PER_NIGHT"),
			PromoCode:          viper.GetString("PRICING_PROMO_CODE"),
			PromoRate:          viper.GetFloat64("PRICING_PROMO_RATE"),
		},
		Worker: WorkerConfig{
			Workers:             viper.GetInt("WORKER_COUNT"),
			QueueSize:           viper.GetInt("WORKER_QUEUE_SIZE"),
			MaintenanceInterval: viper.GetDuration("WORKER_MAINTENANCE_INTERVAL"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		RateLimit: RateLimitConfig{
			Search:       viper.GetInt("RATE_LIMIT_SEARCH"),
			Availability: viper.GetInt("RATE_LIMIT_AVAILABILITY"),
			Pricing:      viper.GetInt("RATE_LIMIT_PRICING"),
			Booking:      viper.GetInt("RATE_LIMIT_BOOKING"),
			AutoApprove:  viper.GetInt("RATE_LIMIT_AUTO_APPROVE"),
			Webhooks:     viper.GetInt("RATE_LIMIT_WEBHOOKS"),
		},
	}

	if config.Webhook.SigningSecret == "" {
		return nil, errors.New("WEBHOOK_SIGNING_SECRET is required")
	}

	return config, nil
}

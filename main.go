// main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"krib-booking/cmd"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/notify"
	"krib-booking/internal/usecase"
	"krib-booking/internal/webhook"
	"krib-booking/internal/wire"
	"krib-booking/pkg/cache"
	"krib-booking/pkg/database"
	"krib-booking/pkg/mail"
	"krib-booking/pkg/middleware"
	"krib-booking/pkg/payment"
	"krib-booking/pkg/utils"
	"krib-booking/pkg/worker"

	"go.uber.org/zap"
)

const (
	usage = `usage: krib-booking [command]

commands:
  serve                          run the HTTP API and background jobs (default)
  migrate up|down|status         manage the database schema
  apikey create <name>           register an external service and print its key
  session issue <host-id> [ttl]  print a bearer token for a host
  session revoke <host-id>       sign a host out of every session`

	poolDrainTimeout = 30 * time.Second
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	command, args := "serve", os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, args, config, logger); err != nil {
		logger.Error("Command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, config *utils.Config, logger *zap.Logger) error {
	switch command {
	case "serve", "migrate", "apikey", "session":
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}

	// migrate opens its own connection through golang-migrate
	if command == "migrate" {
		return cmd.Migrate(os.Stdout, config.Database, args, logger)
	}

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	switch command {
	case "apikey":
		if len(args) == 0 || args[0] != "create" {
			return fmt.Errorf("usage: apikey create <name>")
		}
		return cmd.CreateAPIKey(ctx, os.Stdout, repos.ExternalService, args[1:])
	case "session":
		hosts := usecase.NewHostService(repos.Host, repos.Session, logger)
		if len(args) > 0 && args[0] == "issue" {
			return cmd.IssueSession(ctx, os.Stdout, hosts, args[1:])
		}
		if len(args) > 0 && args[0] == "revoke" {
			return cmd.RevokeSessions(ctx, os.Stdout, hosts, args[1:])
		}
		return fmt.Errorf("usage: session issue <host-id> [ttl] | session revoke <host-id>")
	default:
		return serve(ctx, config, repos, logger)
	}
}

func serve(ctx context.Context, config *utils.Config, repos *repository.Repository, logger *zap.Logger) error {
	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if config.App.AutoMigrate {
		if err := cmd.Migrate(io.Discard, config.Database, []string{"up"}, logger); err != nil {
			return err
		}
	}

	// Limits are per instance when Redis is down
	var limiter middleware.Limiter
	rdb, err := cache.InitRedis(config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process rate limiter", zap.Error(err))
		limiter = cache.NewLocalRateLimiter()
	} else {
		defer rdb.Close()
		limiter = cache.NewRateLimiter(rdb, "krib:ratelimit")
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if config.Email.Host != "" {
		notifier = notify.NewEmailNotifier(mail.NewSMTPMailer(config.Email), logger)
	}

	pool := worker.NewPool(config.Worker.Workers, config.Worker.QueueSize, logger)
	pool.Start()

	dispatcher := webhook.NewDispatcher(
		repos.Webhook,
		webhook.NewClient(config.Webhook.Timeout),
		webhook.NewSigner(config.Webhook.SigningSecret),
		webhook.DispatcherConfig{
			MaxAttempts: config.Webhook.MaxAttempts,
			BackoffBase: config.Webhook.BackoffBase,
			Concurrency: config.Webhook.Concurrency,
		},
		logger,
	)

	infra := usecase.Infra{
		Payments: payment.NewStripe(config.Stripe.SecretKey, config.Stripe.WebhookSecret),
		Webhooks: dispatcher,
		Events:   usecase.NewEventPublisher(dispatcher, notifier, pool, logger),
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, infra, limiter, logger)

	scheduler := worker.NewScheduler(logger)
	scheduler.Every("payout_sweep", config.Payout.SweepInterval, func(ctx context.Context) error {
		_, err := app.Service.Payout.Sweep(ctx)
		return err
	})
	scheduler.Every("complete_bookings", config.Worker.MaintenanceInterval, func(ctx context.Context) error {
		_, err := app.Service.Booking.CompletePastBookings(ctx)
		return err
	})
	scheduler.Every("clean_sessions", config.Worker.MaintenanceInterval, func(ctx context.Context) error {
		_, err := repos.Session.CleanExpiredSessions(ctx)
		return err
	})
	scheduler.Start(ctx)

	serveErr := cmd.APIServer(ctx, app.Router, config.App.Port, logger)

	scheduler.Stop()

	drainCtx, cancel := context.WithTimeout(context.Background(), poolDrainTimeout)
	defer cancel()
	if err := pool.Stop(drainCtx); err != nil {
		logger.Warn("Worker pool did not drain", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return serveErr
}

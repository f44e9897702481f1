package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelagency/api"
	"github.com/Domenick1991/travelagency/config"
	"github.com/Domenick1991/travelagency/internal/auth"
	"github.com/Domenick1991/travelagency/internal/bootstrap"
	"github.com/Domenick1991/travelagency/internal/cache"
	"github.com/Domenick1991/travelagency/internal/document"
	"github.com/Domenick1991/travelagency/internal/events"
	"github.com/Domenick1991/travelagency/internal/kafka"
	"github.com/Domenick1991/travelagency/internal/logger"
	"github.com/Domenick1991/travelagency/internal/rabbitmq"
	"github.com/Domenick1991/travelagency/internal/repository"
	"github.com/Domenick1991/travelagency/internal/service/booking"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
	"github.com/Domenick1991/travelagency/internal/service/listing"
	"github.com/Domenick1991/travelagency/internal/service/pricing"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.Log.Level, "travel-api")
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Pricing.OptionsCacheTTLSeconds)*time.Second)
	defer redisCache.Close()

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher.Close()
	// RabbitMQ uses the topic names as routing keys.
	notifier := events.NewNotifier(publisher, cfg.Kafka.EventsTopic, cfg.Kafka.NotificationsTopic)

	priceRepo := repository.NewPriceRepository(pool)
	quoteRepo := repository.NewQuoteRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	listingRepo := repository.NewListingRepository(pool)

	pricingService := pricing.NewPricingService(priceRepo, redisCache)
	bookingService := booking.NewBookingService(quoteRepo, reservationRepo, pricingService, notifier)
	confirmationService := confirmation.NewConfirmationService(
		quoteRepo,
		userRepo,
		redisCache,
		document.NewRenderer(cfg.Documents.CompanyName, cfg.Documents.FontPath),
		notifier,
		time.Duration(cfg.Pricing.ConfirmLockSeconds)*time.Second,
	)
	listingService := listing.NewListingService(listingRepo, reservationRepo, userRepo)

	checks := healthChecks(publisher, map[string]func(context.Context) error{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
	})

	router := api.NewRouter(api.Services{
		Pricing:      pricingService,
		Booking:      bookingService,
		Confirmation: confirmationService,
		Listing:      listingService,
		Verifier:     auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Users:        userRepo,
		HealthChecks: checks,
	})

	return bootstrap.Run(ctx, cfg, router)
}

// healthChecks adds the broker check to checks when the publisher can report one.
func healthChecks(publisher events.Publisher, checks map[string]func(context.Context) error) map[string]func(context.Context) error {
	if producer, ok := publisher.(*kafka.Producer); ok {
		checks["kafka"] = producer.CheckConnection
	}
	return checks
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newPublisher picks the event transport named by events.driver.
func newPublisher(cfg *config.Config) (events.Publisher, io.Closer, error) {
	switch cfg.Events.Driver {
	case "kafka":
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		return p, p, nil
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}
	slog.Warn("events disabled", "driver", cfg.Events.Driver)
	return nil, nopCloser{}, nil
}

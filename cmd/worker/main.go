package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/travelagency/config"
	"github.com/Domenick1991/travelagency/internal/document"
	"github.com/Domenick1991/travelagency/internal/email"
	"github.com/Domenick1991/travelagency/internal/kafka"
	"github.com/Domenick1991/travelagency/internal/logger"
	"github.com/Domenick1991/travelagency/internal/notifier"
	"github.com/Domenick1991/travelagency/internal/rabbitmq"
	"github.com/Domenick1991/travelagency/internal/repository"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
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
	log := logger.Setup(os.Stdout, cfg.Log.Level, "travel-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	// Rendering needs no lock, cache or publisher.
	confirmations := confirmation.NewConfirmationService(
		repository.NewQuoteRepository(pool),
		repository.NewUserRepository(pool),
		nil,
		document.NewRenderer(cfg.Documents.CompanyName, cfg.Documents.FontPath),
		nil,
		0,
	)
	handler := notifier.NewHandler(confirmations, email.NewSender(log), cfg.Documents.CompanyName)

	switch cfg.Events.Driver {
	case "rabbitmq":
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.Kafka.NotificationsTopic)
		if err != nil {
			return err
		}
		defer consumer.Close()
		return consumer.Consume(ctx, handler.Handle)
	case "kafka":
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()
		slog.Info("consuming from kafka", "topic", cfg.Kafka.NotificationsTopic, "group", cfg.Kafka.GroupID)
		// Offsets are committed on read, so a failed message is logged and skipped.
		return consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
			if err := handler.Handle(ctx, key, value); err != nil {
				slog.Error("handle notification", "key", string(key), "error", err)
			}
			return nil
		})
	}

	slog.Warn("events disabled, nothing to consume", "driver", cfg.Events.Driver)
	<-ctx.Done()
	return nil
}

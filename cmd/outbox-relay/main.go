package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/internal/worker"
	"github.com/prohmpiriya/seat-reservation/pkg/config"
	"github.com/prohmpiriya/seat-reservation/pkg/database"
	"github.com/prohmpiriya/seat-reservation/pkg/kafka"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "outbox-relay",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting outbox relay",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.ReservationTopic),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    "outbox-relay",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal("telemetry initialization failed", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:             cfg.Database.Host,
		Port:             cfg.Database.Port,
		User:             cfg.Database.User,
		Password:         cfg.Database.Password,
		Database:         cfg.Database.DBName,
		SSLMode:          cfg.Database.SSLMode,
		MaxConns:         4,
		MinConns:         1,
		MaxConnLifetime:  cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime:  cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:   5 * time.Second,
		AcquireTimeout:   cfg.Database.AcquireTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
		MaxRetries:       5,
		RetryInterval:    2 * time.Second,
		EnableTracing:    cfg.OTel.Enabled,
		ServiceName:      "outbox-relay",
	})
	if err != nil {
		appLog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:        cfg.Kafka.Brokers,
		ClientID:       cfg.Kafka.ClientID + "-outbox",
		MaxRetries:     5,
		RetryInterval:  2 * time.Second,
		ProduceTimeout: 10 * time.Second,
	})
	if err != nil {
		appLog.Fatal("kafka connection failed", zap.Error(err))
	}
	defer producer.Close()

	relay := worker.NewOutboxWorker(
		repository.NewPostgresOutboxRepository(db),
		producer,
		&worker.OutboxWorkerConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			RetryInterval:   cfg.Outbox.RetryInterval,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
		},
		appLog,
	)
	if err := relay.Start(ctx); err != nil {
		appLog.Fatal("failed to start outbox relay", zap.Error(err))
	}

	<-ctx.Done()
	appLog.Info("shutting down outbox relay")
	relay.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("failed to flush traces", zap.Error(err))
	}
	appLog.Info("outbox relay stopped")
}

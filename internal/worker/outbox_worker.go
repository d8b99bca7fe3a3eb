package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/pkg/kafka"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a running worker
var ErrAlreadyRunning = errors.New("outbox worker already running")

// Publisher sends a message to the broker
type Publisher interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages to relay per poll
	BatchSize int
	// RetryInterval is the interval between retrying failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// Retention is how long published messages are kept
	Retention time.Duration
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:    100 * time.Millisecond,
		BatchSize:       100,
		RetryInterval:   5 * time.Second,
		CleanupInterval: time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// OutboxWorker relays reservation events from the outbox table to Kafka
type OutboxWorker struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	config    *OutboxWorkerConfig
	log       *logger.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(outbox repository.OutboxRepository, publisher Publisher, config *OutboxWorkerConfig, log *logger.Logger) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	if log == nil {
		log = logger.Get()
	}

	return &OutboxWorker{
		outbox:    outbox,
		publisher: publisher,
		config:    config,
		log:       log.Named("outbox-worker"),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the poll, retry and cleanup loops
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(3)
	go w.loop(ctx, w.config.PollInterval, w.relayPending)
	go w.loop(ctx, w.config.RetryInterval, w.relayFailed)
	go w.loop(ctx, w.config.CleanupInterval, w.cleanup)

	return nil
}

// Stop stops the loops and waits for the batch in flight
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox worker stopped")
}

// IsRunning reports whether Start has been called without Stop
func (w *OutboxWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *OutboxWorker) loop(ctx context.Context, every time.Duration, fn func(ctx context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (w *OutboxWorker) relayPending(ctx context.Context) {
	res, err := w.outbox.RelayPending(ctx, w.config.BatchSize, w.publish)
	if err != nil {
		w.log.Error("failed to relay pending messages", zap.Error(err))
		return
	}
	if res.Failed > 0 {
		w.log.Warn("some outbox messages failed to publish",
			zap.Int("published", res.Published),
			zap.Int("failed", res.Failed),
		)
	}
}

func (w *OutboxWorker) relayFailed(ctx context.Context) {
	res, err := w.outbox.RelayFailed(ctx, w.config.BatchSize, w.publish)
	if err != nil {
		w.log.Error("failed to retry failed messages", zap.Error(err))
		return
	}
	if res.Published > 0 || res.Failed > 0 {
		w.log.Info("retried failed outbox messages",
			zap.Int("published", res.Published),
			zap.Int("failed", res.Failed),
		)
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.outbox.DeletePublished(ctx, w.config.Retention)
	if err != nil {
		w.log.Error("failed to clean up published messages", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("cleaned up published messages", zap.Int64("deleted", deleted))
	}
}

func (w *OutboxWorker) publish(ctx context.Context, msg *domain.OutboxMessage) error {
	err := w.publisher.Produce(ctx, &kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.PartitionKey),
		Value: msg.Payload,
		Headers: map[string]string{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
			"message_id":     msg.ID.String(),
			"content_type":   "application/json",
		},
		Timestamp: msg.CreatedAt,
	})
	if err != nil {
		w.log.Warn("failed to publish outbox message",
			zap.String("message_id", msg.ID.String()),
			zap.String("event_type", msg.EventType),
			zap.Int("retry_count", msg.RetryCount),
			zap.Error(err),
		)
	}
	return err
}

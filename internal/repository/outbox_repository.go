package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
)

// PublishFunc delivers one outbox message to the broker
type PublishFunc func(ctx context.Context, msg *domain.OutboxMessage) error

// BatchResult counts the outcome of one relay batch
type BatchResult struct {
	Published int
	Failed    int
}

// OutboxStats is a snapshot of the outbox backlog
type OutboxStats struct {
	Pending   int64 `json:"pending"`
	Failed    int64 `json:"failed"`
	Exhausted int64 `json:"exhausted"`
}

// OutboxRepository defines the interface for outbox data access
type OutboxRepository interface {
	// CreateTx writes a message inside the caller's transaction
	CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error

	// RelayPending locks up to limit pending messages, hands each to publish
	// and records the outcome before releasing the locks.
	RelayPending(ctx context.Context, limit int, publish PublishFunc) (BatchResult, error)

	// RelayFailed does the same for failed messages that still have retries left
	RelayFailed(ctx context.Context, limit int, publish PublishFunc) (BatchResult, error)

	// DeletePublished removes published messages older than the retention
	DeletePublished(ctx context.Context, retention time.Duration) (int64, error)

	Stats(ctx context.Context) (*OutboxStats, error)
}

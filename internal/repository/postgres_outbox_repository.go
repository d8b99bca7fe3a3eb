package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/pkg/database"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// lastErrorMaxLen truncates broker errors stored on a message
const lastErrorMaxLen = 1000

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	db *database.PostgresDB
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(db *database.PostgresDB) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// CreateTx creates a new outbox message within a transaction
func (r *PostgresOutboxRepository) CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, topic, partition_key, status,
			retry_count, max_retries, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := tx.Exec(ctx, query,
		msg.ID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		string(msg.Status),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

// RelayPending publishes pending messages oldest first
func (r *PostgresOutboxRepository) RelayPending(ctx context.Context, limit int, publish PublishFunc) (BatchResult, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	return r.relay(ctx, "repo.postgres.outbox.relay_pending", query, limit, publish)
}

// RelayFailed republishes failed messages that have retries left
func (r *PostgresOutboxRepository) RelayFailed(ctx context.Context, limit int, publish PublishFunc) (BatchResult, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	return r.relay(ctx, "repo.postgres.outbox.relay_failed", query, limit, publish)
}

// relay holds the row locks for the whole batch so concurrent relays never
// publish the same message.
func (r *PostgresOutboxRepository) relay(ctx context.Context, spanName, query string, limit int, publish PublishFunc) (BatchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	var result BatchResult

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("failed to select outbox messages: %w", err)
	}
	messages, err := scanOutboxMessages(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	for _, msg := range messages {
		if pubErr := publish(ctx, msg); pubErr != nil {
			if err := markFailed(ctx, tx, msg.ID, pubErr.Error()); err != nil {
				return result, err
			}
			result.Failed++
			continue
		}
		if err := markPublished(ctx, tx, msg.ID); err != nil {
			return result, err
		}
		result.Published++
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("failed to commit outbox batch: %w", err)
	}

	span.SetAttributes(
		attribute.Int("published", result.Published),
		attribute.Int("failed", result.Failed),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func markPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE outbox SET
			status = 'published',
			last_error = NULL,
			processed_at = $2,
			published_at = $2
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark message as published: %w", err)
	}
	return nil
}

func markFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errMsg string) error {
	if len(errMsg) > lastErrorMaxLen {
		errMsg = errMsg[:lastErrorMaxLen]
	}
	query := `
		UPDATE outbox SET
			status = 'failed',
			last_error = $2,
			retry_count = retry_count + 1,
			processed_at = $3
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, id, errMsg, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark message as failed: %w", err)
	}
	return nil
}

// DeletePublished deletes published messages older than retention
func (r *PostgresOutboxRepository) DeletePublished(ctx context.Context, retention time.Duration) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.delete_published")
	defer span.End()

	query := `
		DELETE FROM outbox
		WHERE status = 'published' AND published_at < $1
	`

	result, err := r.db.Pool().Exec(ctx, query, time.Now().UTC().Add(-retention))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to delete published messages: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", result.RowsAffected()))
	span.SetStatus(codes.Ok, "")
	return result.RowsAffected(), nil
}

// Stats counts the backlog by state
func (r *PostgresOutboxRepository) Stats(ctx context.Context) (*OutboxStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed' AND retry_count < max_retries),
			COUNT(*) FILTER (WHERE status = 'failed' AND retry_count >= max_retries)
		FROM outbox
	`

	stats := &OutboxStats{}
	if err := r.db.Pool().QueryRow(ctx, query).Scan(&stats.Pending, &stats.Failed, &stats.Exhausted); err != nil {
		return nil, fmt.Errorf("failed to read outbox stats: %w", err)
	}
	return stats, nil
}

const outboxColumns = `
			id, aggregate_type, aggregate_id, event_type,
			payload, topic, partition_key, status,
			retry_count, max_retries, last_error,
			created_at, published_at`

func scanOutboxMessages(rows pgx.Rows) ([]*domain.OutboxMessage, error) {
	defer rows.Close()

	var messages []*domain.OutboxMessage
	for rows.Next() {
		msg := &domain.OutboxMessage{}
		var (
			status    string
			lastError *string
		)

		err := rows.Scan(
			&msg.ID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.Topic,
			&msg.PartitionKey,
			&status,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.CreatedAt,
			&msg.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		msg.Status = domain.OutboxStatus(status)
		if lastError != nil {
			msg.LastError = *lastError
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}
	return messages, nil
}

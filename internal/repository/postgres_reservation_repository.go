package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/pkg/database"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PostgresReservationRepository implements ReservationRepository on PostgreSQL.
// Reservation changes and their outbox events commit in the same transaction.
type PostgresReservationRepository struct {
	db     *database.PostgresDB
	outbox *PostgresOutboxRepository
	topic  string
}

// NewPostgresReservationRepository creates a new PostgresReservationRepository
func NewPostgresReservationRepository(db *database.PostgresDB, outbox *PostgresOutboxRepository, topic string) *PostgresReservationRepository {
	return &PostgresReservationRepository{db: db, outbox: outbox, topic: topic}
}

// BeginClaim opens a read-committed transaction
func (r *PostgresReservationRepository) BeginClaim(ctx context.Context) (ClaimTx, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.begin_claim")
	defer span.End()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}

	return &pgClaimTx{tx: tx, outbox: r.outbox, topic: r.topic}, nil
}

// ListByUser returns all reservations held by a user
func (r *PostgresReservationRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	query := `
		SELECT id, event_id, seat_id, user_id, status, created_at
		FROM reservations
		WHERE user_id = $1
		ORDER BY id
	`
	return r.list(ctx, span, query, userID)
}

// ListByEvent returns all reservations for an event
func (r *PostgresReservationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_by_event")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	query := `
		SELECT id, event_id, seat_id, user_id, status, created_at
		FROM reservations
		WHERE event_id = $1
		ORDER BY id
	`
	return r.list(ctx, span, query, eventID)
}

func (r *PostgresReservationRepository) list(ctx context.Context, span trace.Span, query string, arg int64) ([]*domain.Reservation, error) {
	rows, err := r.db.Pool().Query(ctx, query, arg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res := &domain.Reservation{}
		var status string
		if err := rows.Scan(&res.ID, &res.EventID, &res.SeatID, &res.UserID, &status, &res.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		res.Status = domain.ReservationStatus(status)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// Delete removes a reservation and records a cancellation event
func (r *PostgresReservationRepository) Delete(ctx context.Context, reservationID int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", reservationID))

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		DELETE FROM reservations
		WHERE id = $1
		RETURNING id, event_id, seat_id, user_id
	`

	res := &domain.Reservation{Status: domain.ReservationStatusCancelled}
	err = tx.QueryRow(ctx, query, reservationID).Scan(&res.ID, &res.EventID, &res.SeatID, &res.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("deleted", false))
		span.SetStatus(codes.Ok, "")
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to delete reservation: %w", err)
	}

	if err := writeReservationEvent(ctx, r.outbox, tx, r.topic, domain.ReservationEventCancelled, res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	span.SetAttributes(attribute.Bool("deleted", true))
	span.SetStatus(codes.Ok, "")
	return true, nil
}

func writeReservationEvent(ctx context.Context, outbox *PostgresOutboxRepository, tx pgx.Tx, topic string, eventType domain.ReservationEventType, res *domain.Reservation) error {
	if outbox == nil {
		return nil
	}
	msg, err := domain.NewReservationOutboxMessage(eventType, res, topic)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return outbox.CreateTx(ctx, tx, msg)
}

// pgClaimTx implements ClaimTx over a pgx transaction
type pgClaimTx struct {
	tx     pgx.Tx
	outbox *PostgresOutboxRepository
	topic  string
}

func (t *pgClaimTx) LockSeat(ctx context.Context, seatID int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.lock_seat")
	defer span.End()

	span.SetAttributes(attribute.Int64("seat_id", seatID))

	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM seats WHERE id = $1 FOR UPDATE`, seatID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("found", false))
		span.SetStatus(codes.Ok, "")
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to lock seat: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	span.SetStatus(codes.Ok, "")
	return true, nil
}

func (t *pgClaimTx) HasActiveReservation(ctx context.Context, seatID int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.has_active")
	defer span.End()

	span.SetAttributes(attribute.Int64("seat_id", seatID))

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE seat_id = $1 AND status = 'active')`
	if err := t.tx.QueryRow(ctx, query, seatID).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to check seat reservation: %w", err)
	}

	span.SetAttributes(attribute.Bool("active", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

func (t *pgClaimTx) InsertReservation(ctx context.Context, res *domain.Reservation) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.insert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", res.EventID),
		attribute.Int64("seat_id", res.SeatID),
		attribute.Int64("user_id", res.UserID),
	)

	query := `
		INSERT INTO reservations (event_id, seat_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := t.tx.QueryRow(ctx, query,
		res.EventID,
		res.SeatID,
		res.UserID,
		res.Status.String(),
		res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		err = classifyError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := writeReservationEvent(ctx, t.outbox, t.tx, t.topic, domain.ReservationEventConfirmed, res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int64("reservation_id", res.ID))
	span.SetStatus(codes.Ok, "")
	return res.ID, nil
}

func (t *pgClaimTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit claim: %w", classifyError(err))
	}
	return nil
}

func (t *pgClaimTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

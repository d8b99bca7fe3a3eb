package repository

import (
	"context"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
)

// ReservationRepository defines the interface for reservation data access
type ReservationRepository interface {
	// BeginClaim opens the transaction a single claim runs in. Callers must
	// defer Rollback; it is a no-op after Commit.
	BeginClaim(ctx context.Context) (ClaimTx, error)

	// ListByUser returns a user's reservations in creation order
	ListByUser(ctx context.Context, userID int64) ([]*domain.Reservation, error)

	// ListByEvent returns an event's reservations in creation order
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error)

	// Delete removes a reservation and reports whether one existed
	Delete(ctx context.Context, reservationID int64) (bool, error)
}

// ClaimTx is the transaction scope of one claim
type ClaimTx interface {
	// LockSeat takes the seat row lock until the transaction ends.
	// It returns false if no such seat exists.
	LockSeat(ctx context.Context, seatID int64) (bool, error)

	// HasActiveReservation reads under the seat lock held by this transaction
	HasActiveReservation(ctx context.Context, seatID int64) (bool, error)

	// InsertReservation writes the reservation and its outbox event and
	// returns the new reservation id. Store constraint failures surface as
	// domain.ErrReferentialViolation or domain.ErrDuplicateActiveReservation.
	InsertReservation(ctx context.Context, r *domain.Reservation) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

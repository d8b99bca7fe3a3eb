package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
)

// PostgreSQL error codes
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

const activeSeatIndex = "reservations_active_seat_uidx"

// classifyError maps constraint violations to domain errors and leaves
// everything else untouched.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", domain.ErrReferentialViolation, err)
	case pgUniqueViolation:
		if pgErr.ConstraintName == activeSeatIndex {
			return fmt.Errorf("%w: %w", domain.ErrDuplicateActiveReservation, err)
		}
	}
	return err
}

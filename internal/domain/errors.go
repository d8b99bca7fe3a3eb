package domain

import "errors"

// Domain errors
var (
	// Validation rejections
	ErrInvalidEvent        = errors.New("invalid event id")
	ErrInvalidUser         = errors.New("invalid user id")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrSeatAlreadyReserved = errors.New("seat already reserved")

	// Persistence conflicts
	ErrReferentialViolation       = errors.New("event or user id rejected by store constraints")
	ErrDuplicateActiveReservation = errors.New("duplicate active reservation for seat")

	// Internal failure
	ErrReservationFailed = errors.New("reservation failed")

	// Cancellation
	ErrReservationNotFound = errors.New("reservation not found")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrReservationNotFound)
}

// IsValidationError checks if the error rejects the claim before or while
// the seat is inspected
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidUser) ||
		errors.Is(err, ErrSeatNotFound) ||
		errors.Is(err, ErrSeatAlreadyReserved)
}

// IsConflictError checks if the store rejected the write
func IsConflictError(err error) bool {
	return errors.Is(err, ErrReferentialViolation)
}

// IsRejection reports whether err is an expected, user-facing outcome
func IsRejection(err error) bool {
	return IsValidationError(err) || IsConflictError(err)
}

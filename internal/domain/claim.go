package domain

import "fmt"

// ClaimState is a step of the allocation state machine
type ClaimState string

const (
	ClaimStateReceived   ClaimState = "received"
	ClaimStateValidating ClaimState = "validating"
	ClaimStateLocking    ClaimState = "locking"
	ClaimStateChecking   ClaimState = "checking"
	ClaimStateCommitting ClaimState = "committing"
	ClaimStateConfirmed  ClaimState = "confirmed"
	ClaimStateRejected   ClaimState = "rejected"
	ClaimStateFailed     ClaimState = "failed"
)

// IsTerminal reports whether the state ends a claim
func (s ClaimState) IsTerminal() bool {
	switch s {
	case ClaimStateConfirmed, ClaimStateRejected, ClaimStateFailed:
		return true
	}
	return false
}

// RejectReason tags why a claim did not confirm
type RejectReason string

const (
	ReasonInvalidEvent        RejectReason = "invalid-event"
	ReasonInvalidUser         RejectReason = "invalid-user"
	ReasonSeatNotFound        RejectReason = "seat-not-found"
	ReasonSeatAlreadyReserved RejectReason = "seat-already-reserved"
	ReasonInvalidEventOrUser  RejectReason = "invalid-event-or-user"
	ReasonInternal            RejectReason = "internal"
)

// Sentinel maps a reason to its domain error
func (r RejectReason) Sentinel() error {
	switch r {
	case ReasonInvalidEvent:
		return ErrInvalidEvent
	case ReasonInvalidUser:
		return ErrInvalidUser
	case ReasonSeatNotFound:
		return ErrSeatNotFound
	case ReasonSeatAlreadyReserved:
		return ErrSeatAlreadyReserved
	case ReasonInvalidEventOrUser:
		return ErrReferentialViolation
	default:
		return ErrReservationFailed
	}
}

// ClaimError is returned for every claim that ends Rejected or Failed.
// State is the terminal state, From the state in which the claim stopped.
type ClaimError struct {
	State  ClaimState
	From   ClaimState
	Reason RejectReason
	// Verdict is set when the claim stopped while validating
	Verdict *Verdict
	// Err is the underlying cause, if any
	Err error
}

func (e *ClaimError) Error() string {
	msg := fmt.Sprintf("claim %s at %s: %s", e.State, e.From, e.Reason)
	if e.Verdict != nil {
		msg += fmt.Sprintf(" (%s)", e.Verdict)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the reason sentinel and the cause to errors.Is
func (e *ClaimError) Unwrap() []error {
	errs := []error{e.Reason.Sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Rejected builds a rejection raised in state from
func Rejected(from ClaimState, reason RejectReason, cause error) *ClaimError {
	return &ClaimError{State: ClaimStateRejected, From: from, Reason: reason, Err: cause}
}

// RejectedByVerdict builds a validation rejection carrying the collaborator's verdict
func RejectedByVerdict(reason RejectReason, v Verdict) *ClaimError {
	return &ClaimError{State: ClaimStateRejected, From: ClaimStateValidating, Reason: reason, Verdict: &v}
}

// Failed builds an internal failure raised in state from
func Failed(from ClaimState, cause error) *ClaimError {
	return &ClaimError{State: ClaimStateFailed, From: from, Reason: ReasonInternal, Err: cause}
}

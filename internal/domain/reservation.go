package domain

import "time"

// ReservationStatus is the lifecycle status of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// Seat is a pre-provisioned seat row. This service locks seats but never creates them.
type Seat struct {
	ID      int64 `json:"id"`
	EventID int64 `json:"event_id"`
}

// Reservation is an allocation of one seat to one user for one event
type Reservation struct {
	ID        int64             `json:"reservation_id"`
	EventID   int64             `json:"event_id"`
	SeatID    int64             `json:"seat_id"`
	UserID    int64             `json:"user_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewReservation builds an active reservation for a claim
func NewReservation(req ClaimRequest) *Reservation {
	return &Reservation{
		EventID:   req.EventID,
		SeatID:    req.SeatID,
		UserID:    req.UserID,
		Status:    ReservationStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

// IsActive reports whether the reservation still holds its seat
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// ClaimRequest asks for one seat for one user at one event
type ClaimRequest struct {
	EventID int64
	SeatID  int64
	UserID  int64
}

// ClaimStatusConfirmed is the status string of a successful claim
const ClaimStatusConfirmed = "confirmed"

// ClaimResult is the outcome of a confirmed claim
type ClaimResult struct {
	ReservationID int64
	Status        string
}

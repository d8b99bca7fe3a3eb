package dto

import "github.com/prohmpiriya/seat-reservation/internal/domain"

// ReserveRequest represents request to reserve a seat. Pointers let binding
// tell a missing field from a zero id.
type ReserveRequest struct {
	EventID *int64 `json:"event_id" binding:"required"`
	SeatID  *int64 `json:"seat_id" binding:"required"`
	UserID  *int64 `json:"user_id" binding:"required"`
}

// ToClaim converts a bound request into a claim
func (r *ReserveRequest) ToClaim() domain.ClaimRequest {
	return domain.ClaimRequest{
		EventID: *r.EventID,
		SeatID:  *r.SeatID,
		UserID:  *r.UserID,
	}
}

// ReserveResponse represents response after reserving a seat
type ReserveResponse struct {
	ReservationID int64  `json:"reservation_id"`
	Status        string `json:"status"`
}

// CancelResponse represents response after cancelling a reservation
type CancelResponse struct {
	Status string `json:"status"`
}

// UserReservationResponse is one entry of a user's reservations
type UserReservationResponse struct {
	ReservationID int64 `json:"reservation_id"`
	EventID       int64 `json:"event_id"`
	SeatID        int64 `json:"seat_id"`
}

// EventReservationResponse is one entry of an event's reservations
type EventReservationResponse struct {
	ReservationID int64 `json:"reservation_id"`
	SeatID        int64 `json:"seat_id"`
	UserID        int64 `json:"user_id"`
}

// FromUserReservations converts reservations to the per-user view. Never nil.
func FromUserReservations(list []*domain.Reservation) []UserReservationResponse {
	out := make([]UserReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, UserReservationResponse{
			ReservationID: r.ID,
			EventID:       r.EventID,
			SeatID:        r.SeatID,
		})
	}
	return out
}

// FromEventReservations converts reservations to the per-event view. Never nil.
func FromEventReservations(list []*domain.Reservation) []EventReservationResponse {
	out := make([]EventReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, EventReservationResponse{
			ReservationID: r.ID,
			SeatID:        r.SeatID,
			UserID:        r.UserID,
		})
	}
	return out
}

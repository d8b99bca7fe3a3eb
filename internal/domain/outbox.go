package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultOutboxMaxRetries caps publish attempts per message
const DefaultOutboxMaxRetries = 5

// AggregateReservation is the aggregate type of reservation events
const AggregateReservation = "reservation"

// ReservationEventType names a reservation lifecycle event
type ReservationEventType string

const (
	ReservationEventConfirmed ReservationEventType = "reservation.confirmed"
	ReservationEventCancelled ReservationEventType = "reservation.cancelled"
)

// ReservationEvent is the payload published for reservation lifecycle changes
type ReservationEvent struct {
	EventType     ReservationEventType `json:"event_type"`
	ReservationID int64                `json:"reservation_id"`
	EventID       int64                `json:"event_id"`
	SeatID        int64                `json:"seat_id"`
	UserID        int64                `json:"user_id"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// OutboxMessage represents a message in the outbox table
type OutboxMessage struct {
	ID            uuid.UUID    `json:"id"`
	AggregateType string       `json:"aggregate_type"`
	AggregateID   string       `json:"aggregate_id"`
	EventType     string       `json:"event_type"`
	Payload       []byte       `json:"payload"`
	Topic         string       `json:"topic"`
	PartitionKey  string       `json:"partition_key"`
	Status        OutboxStatus `json:"status"`
	RetryCount    int          `json:"retry_count"`
	MaxRetries    int          `json:"max_retries"`
	LastError     string       `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
}

// NewReservationOutboxMessage builds the outbox row for a reservation event.
// Messages are keyed by seat so consumers see a seat's history in order.
func NewReservationOutboxMessage(eventType ReservationEventType, r *Reservation, topic string) (*OutboxMessage, error) {
	payload, err := json.Marshal(ReservationEvent{
		EventType:     eventType,
		ReservationID: r.ID,
		EventID:       r.EventID,
		SeatID:        r.SeatID,
		UserID:        r.UserID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		ID:            uuid.New(),
		AggregateType: AggregateReservation,
		AggregateID:   strconv.FormatInt(r.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
		Topic:         topic,
		PartitionKey:  strconv.FormatInt(r.SeatID, 10),
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultOutboxMaxRetries,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// CanRetry checks if the message can be retried
func (m *OutboxMessage) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}

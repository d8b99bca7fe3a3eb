package service

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/metrics"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ReservationQueryService lists and cancels reservations
type ReservationQueryService interface {
	ListForUser(ctx context.Context, userID int64) ([]*domain.Reservation, error)
	ListForEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error)
	// Cancel returns domain.ErrReservationNotFound when nothing was removed
	Cancel(ctx context.Context, reservationID int64) error
}

type reservationQueryService struct {
	repo    repository.ReservationRepository
	metrics metrics.Recorder
	log     *logger.Logger
}

// NewReservationQueryService creates a new ReservationQueryService
func NewReservationQueryService(repo repository.ReservationRepository, rec metrics.Recorder, log *logger.Logger) ReservationQueryService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &reservationQueryService{
		repo:    repo,
		metrics: rec,
		log:     log.Named("reservation-query"),
	}
}

func (s *reservationQueryService) ListForUser(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for user %d: %w", userID, err)
	}
	return list, nil
}

func (s *reservationQueryService) ListForEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error) {
	list, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for event %d: %w", eventID, err)
	}
	return list, nil
}

func (s *reservationQueryService) Cancel(ctx context.Context, reservationID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", reservationID))

	deleted, err := s.repo.Delete(ctx, reservationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("cancel reservation %d: %w", reservationID, err)
	}
	if !deleted {
		span.SetStatus(codes.Ok, "not found")
		return domain.ErrReservationNotFound
	}

	s.metrics.ReservationCancelled(ctx)
	s.log.WithContext(ctx).Info("reservation cancelled", zap.Int64("reservation_id", reservationID))
	span.SetStatus(codes.Ok, "")
	return nil
}

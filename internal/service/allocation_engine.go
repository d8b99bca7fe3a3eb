package service

import (
	"context"
	"errors"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/metrics"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AllocationEngine turns a claim into a confirmed reservation or a typed rejection
type AllocationEngine interface {
	// Reserve returns a *domain.ClaimError for every claim that does not confirm
	Reserve(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error)
}

type allocationEngine struct {
	validator ExistenceValidator
	repo      repository.ReservationRepository
	metrics   metrics.Recorder
	log       *logger.Logger
}

// NewAllocationEngine creates a new AllocationEngine
func NewAllocationEngine(validator ExistenceValidator, repo repository.ReservationRepository, rec metrics.Recorder, log *logger.Logger) AllocationEngine {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &allocationEngine{
		validator: validator,
		repo:      repo,
		metrics:   rec,
		log:       log.Named("allocation-engine"),
	}
}

func (e *allocationEngine) Reserve(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.allocation.reserve")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", req.EventID),
		attribute.Int64("seat_id", req.SeatID),
		attribute.Int64("user_id", req.UserID),
	)

	start := time.Now()
	result, err := e.claim(ctx, req)
	elapsed := time.Since(start)

	log := e.log.WithContext(ctx).With(
		zap.Int64("event_id", req.EventID),
		zap.Int64("seat_id", req.SeatID),
		zap.Int64("user_id", req.UserID),
		zap.Duration("elapsed", elapsed),
	)

	if err == nil {
		e.metrics.ClaimFinished(ctx, domain.ClaimStateConfirmed, "", elapsed)
		span.SetAttributes(attribute.Int64("reservation_id", result.ReservationID))
		span.SetStatus(codes.Ok, "")
		log.Info("seat reserved", zap.Int64("reservation_id", result.ReservationID))
		return result, nil
	}

	var claimErr *domain.ClaimError
	if !errors.As(err, &claimErr) {
		claimErr = domain.Failed(domain.ClaimStateReceived, err)
	}
	e.metrics.ClaimFinished(ctx, claimErr.State, claimErr.Reason, elapsed)

	span.SetAttributes(
		attribute.String("claim.state", string(claimErr.State)),
		attribute.String("claim.from", string(claimErr.From)),
		attribute.String("claim.reason", string(claimErr.Reason)),
	)

	fields := []zap.Field{
		zap.String("from", string(claimErr.From)),
		zap.String("reason", string(claimErr.Reason)),
	}
	if claimErr.Verdict != nil {
		fields = append(fields, zap.String("verdict", claimErr.Verdict.String()))
	}

	if claimErr.State == domain.ClaimStateFailed {
		telemetry.RecordError(span, claimErr)
		log.Error("reservation failed", append(fields, zap.Error(claimErr.Err))...)
	} else {
		span.SetStatus(codes.Ok, "rejected")
		log.Info("reservation rejected", fields...)
	}
	return nil, claimErr
}

// claim walks Validating, Locking, Checking and Committing. No transaction is
// opened until both collaborators have confirmed existence.
func (e *allocationEngine) claim(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error) {
	if v := e.validator.CheckEvent(ctx, req.EventID); v != domain.VerdictExists {
		return nil, domain.RejectedByVerdict(domain.ReasonInvalidEvent, v)
	}
	if v := e.validator.CheckUser(ctx, req.UserID); v != domain.VerdictExists {
		return nil, domain.RejectedByVerdict(domain.ReasonInvalidUser, v)
	}

	tx, err := e.repo.BeginClaim(ctx)
	if err != nil {
		return nil, domain.Failed(domain.ClaimStateLocking, err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	found, err := tx.LockSeat(ctx, req.SeatID)
	if err != nil {
		return nil, domain.Failed(domain.ClaimStateLocking, err)
	}
	if !found {
		return nil, domain.Rejected(domain.ClaimStateLocking, domain.ReasonSeatNotFound, nil)
	}

	taken, err := tx.HasActiveReservation(ctx, req.SeatID)
	if err != nil {
		return nil, domain.Failed(domain.ClaimStateChecking, err)
	}
	if taken {
		return nil, domain.Rejected(domain.ClaimStateChecking, domain.ReasonSeatAlreadyReserved, nil)
	}

	id, err := tx.InsertReservation(ctx, domain.NewReservation(req))
	if err != nil {
		return nil, commitError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, commitError(err)
	}

	return &domain.ClaimResult{ReservationID: id, Status: domain.ClaimStatusConfirmed}, nil
}

// commitError classifies a store error raised while committing
func commitError(err error) *domain.ClaimError {
	switch {
	case errors.Is(err, domain.ErrReferentialViolation):
		return domain.Rejected(domain.ClaimStateCommitting, domain.ReasonInvalidEventOrUser, err)
	case errors.Is(err, domain.ErrDuplicateActiveReservation):
		return domain.Rejected(domain.ClaimStateCommitting, domain.ReasonSeatAlreadyReserved, err)
	default:
		return domain.Failed(domain.ClaimStateCommitting, err)
	}
}

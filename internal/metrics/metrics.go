package metrics

import (
	"context"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder records claim and validator metrics
type Recorder interface {
	ClaimFinished(ctx context.Context, state domain.ClaimState, reason domain.RejectReason, elapsed time.Duration)
	VerdictObserved(ctx context.Context, collaborator string, v domain.Verdict)
	ReservationCancelled(ctx context.Context)
}

// OTelRecorder implements Recorder with OpenTelemetry instruments
type OTelRecorder struct {
	claims        metric.Int64Counter
	claimDuration metric.Float64Histogram
	verdicts      metric.Int64Counter
	cancellations metric.Int64Counter
}

// NewOTelRecorder registers instruments on meter. A nil meter uses the global one.
func NewOTelRecorder(meter metric.Meter) (*OTelRecorder, error) {
	if meter == nil {
		meter = telemetry.Meter()
	}

	claims, err := meter.Int64Counter("reservation.claims",
		metric.WithDescription("Seat claims by terminal state and reason"),
	)
	if err != nil {
		return nil, err
	}

	claimDuration, err := meter.Float64Histogram("reservation.claim.duration",
		metric.WithDescription("Time from receiving a claim to its terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	verdicts, err := meter.Int64Counter("reservation.validator.verdicts",
		metric.WithDescription("Existence checks by collaborator and verdict"),
	)
	if err != nil {
		return nil, err
	}

	cancellations, err := meter.Int64Counter("reservation.cancellations",
		metric.WithDescription("Reservations cancelled"),
	)
	if err != nil {
		return nil, err
	}

	return &OTelRecorder{
		claims:        claims,
		claimDuration: claimDuration,
		verdicts:      verdicts,
		cancellations: cancellations,
	}, nil
}

func (r *OTelRecorder) ClaimFinished(ctx context.Context, state domain.ClaimState, reason domain.RejectReason, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("state", string(state)),
		attribute.String("reason", string(reason)),
	)
	r.claims.Add(ctx, 1, attrs)
	r.claimDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (r *OTelRecorder) VerdictObserved(ctx context.Context, collaborator string, v domain.Verdict) {
	r.verdicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collaborator", collaborator),
		attribute.String("verdict", v.String()),
	))
}

func (r *OTelRecorder) ReservationCancelled(ctx context.Context) {
	r.cancellations.Add(ctx, 1)
}

// Nop discards everything
type Nop struct{}

func (Nop) ClaimFinished(context.Context, domain.ClaimState, domain.RejectReason, time.Duration) {}
func (Nop) VerdictObserved(context.Context, string, domain.Verdict)                             {}
func (Nop) ReservationCancelled(context.Context)                                                {}

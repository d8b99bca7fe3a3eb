package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for service metrics
const MeterName = "reservation-service"

// Meter returns the meter from the global MeterProvider. Without an SDK
// provider installed the instruments are no-ops.
func Meter() metric.Meter {
	return otel.Meter(MeterName)
}

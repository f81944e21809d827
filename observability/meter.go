package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the OpenTelemetry instruments for payment provider calls as
// seen by callers: one data point per psp.Service call, after resilience,
// plus the provider-specific operation middleware.
type Metrics struct {
	calls        metric.Int64Counter
	callDuration metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
	operations   metric.Int64Counter
	errors       metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var errs [5]error
	m.calls, errs[0] = meter.Int64Counter("psp.calls",
		metric.WithDescription("Payment provider calls by provider, method and outcome"))
	m.callDuration, errs[1] = meter.Float64Histogram("psp.call.duration",
		metric.WithDescription("Duration of payment provider calls including retries"),
		metric.WithUnit("s"))
	m.inFlight, errs[2] = meter.Int64UpDownCounter("psp.calls.in_flight",
		metric.WithDescription("Payment provider calls in progress"))
	m.operations, errs[3] = meter.Int64Counter("psp.provider_operations",
		metric.WithDescription("Provider-specific operations by outcome"))
	m.errors, errs[4] = meter.Int64Counter("psp.errors",
		metric.WithDescription("Failed payment provider calls by error kind"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("creating psp instruments: %w", err)
	}
	return &m, nil
}

// CallStarted counts a call to provider as in flight.
func (m *Metrics) CallStarted(ctx context.Context, provider string) {
	m.inFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// CallFinished ends a call started with CallStarted and records its outcome.
func (m *Metrics) CallFinished(ctx context.Context, provider, method, outcome string, d time.Duration) {
	p := attribute.String("provider", provider)
	mt := attribute.String("method", method)
	m.inFlight.Add(ctx, -1, metric.WithAttributes(p))
	m.calls.Add(ctx, 1, metric.WithAttributes(p, mt, attribute.String("outcome", outcome)))
	m.callDuration.Record(ctx, d.Seconds(), metric.WithAttributes(p, mt))
}

// RecordOperation records one provider-specific operation. The duration is
// added to the call histogram under the operation name.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation, outcome string, d time.Duration) {
	p := attribute.String("provider", provider)
	op := attribute.String("operation", operation)
	m.operations.Add(ctx, 1, metric.WithAttributes(p, op, attribute.String("outcome", outcome)))
	m.callDuration.Record(ctx, d.Seconds(), metric.WithAttributes(p, attribute.String("method", operation)))
}

// RecordError counts a failed call by its resilience error kind.
func (m *Metrics) RecordError(ctx context.Context, kind, provider string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("provider", provider),
	))
}

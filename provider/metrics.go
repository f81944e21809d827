package provider

import (
	"context"
	"time"

	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/resilience"
)

// WithMetrics returns a Middleware that records execution metrics
// using the observability.Metrics instruments.
// Records: operation count, duration histogram, and errors by kind.
func WithMetrics[I, O any](metrics *observability.Metrics, operation string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics, operation: operation}
	}
}

type metricsRR[I, O any] struct {
	inner     RequestResponse[I, O]
	metrics   *observability.Metrics
	operation string
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	duration := time.Since(start)

	status := resilience.StatusSuccess
	if err != nil {
		status = resilience.StatusFailure
		m.metrics.RecordError(ctx, resilience.ErrorKind(err), m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), m.operation, status, duration)

	return output, err
}

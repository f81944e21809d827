package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pspkit/resilience"
)

// Call tracks one payment provider call: its span and, when metrics are
// configured, the call instruments.
type Call struct {
	Provider string
	Method   string
	start    time.Time
	span     trace.Span
	metrics  *Metrics
}

// StartCall opens a psp.call span and counts the call as in flight. A nil
// metrics records only the span.
func StartCall(ctx context.Context, service, provider, method, requestID string, metrics *Metrics) (context.Context, *Call) {
	ctx, span := StartSpan(ctx, SpanPSPCall)
	SetSpanAttributes(ctx,
		AttrServiceName, service,
		AttrProvider, provider,
		AttrMethod, method,
		AttrRequestID, requestID,
	)
	if metrics != nil {
		metrics.CallStarted(ctx, provider)
	}
	return ctx, &Call{Provider: provider, Method: method, start: time.Now(), span: span, metrics: metrics}
}

// End closes the span and records the outcome. err is the error returned to
// the caller, nil on success.
func (c *Call) End(ctx context.Context, err error) {
	outcome := resilience.StatusSuccess
	if err != nil {
		outcome = resilience.StatusFailure
		SetSpanError(ctx, err)
		SetSpanAttributes(ctx, AttrErrorKind, resilience.ErrorKind(err))
	}
	SetSpanAttributes(ctx, AttrOutcome, outcome)
	c.span.End()

	if c.metrics != nil {
		c.metrics.CallFinished(ctx, c.Provider, c.Method, outcome, c.Duration())
		if err != nil {
			c.metrics.RecordError(ctx, resilience.ErrorKind(err), c.Provider)
		}
	}
}

// Duration returns the time since StartCall.
func (c *Call) Duration() time.Duration {
	return time.Since(c.start)
}

package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kbukum/pspkit"

// SpanPSPCall names the span around one payment provider call.
const SpanPSPCall = "psp.call"

// Span attribute keys.
const (
	AttrServiceName = "service.name"
	AttrProvider    = "psp.provider"
	AttrMethod      = "psp.method"
	AttrRequestID   = "psp.request_id"
	AttrOutcome     = "psp.outcome"
	AttrErrorKind   = "psp.error_kind"
)

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// SetSpanAttributes adds string attributes to the recording span in ctx.
// Empty values are skipped.
func SetSpanAttributes(ctx context.Context, kv ...string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
		}
	}
	span.SetAttributes(attrs...)
}

// SetSpanError records err on the span in ctx and marks it failed.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

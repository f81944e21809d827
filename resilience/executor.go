package resilience

import (
	"context"
	"errors"
	"time"
)

// Executor applies the policies of a Registry to operations and records one
// timer and one counter per terminal outcome.
//
// Policies are applied outermost first: circuit breaker, rate limiter,
// bulkhead, retry, time limiter. The breaker takes one decision per logical
// call. Rate limiter tokens and bulkhead slots are taken per attempt, inside
// the retry loop, and each attempt gets its own timeout.
type Executor struct {
	registry *Registry
	sink     MetricsSink
	enabled  bool
	now      func() time.Time
}

// NewExecutor creates an executor over registry. A nil sink discards metrics.
// When the registry config is disabled, work runs directly and only metrics
// are recorded.
func NewExecutor(registry *Registry, sink MetricsSink) *Executor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Executor{
		registry: registry,
		sink:     sink,
		enabled:  registry.Config().Enabled,
		now:      time.Now,
	}
}

// Registry returns the registry backing the executor.
func (e *Executor) Registry() *Registry { return e.registry }

// Enabled reports whether policies are applied.
func (e *Executor) Enabled() bool { return e.enabled }

// InstanceName returns the default instance name for a provider operation.
func InstanceName(provider, operation string) string {
	return provider + "-" + operation
}

// Execute runs work under the policy instance "{provider}-{operation}".
func Execute[T any](ctx context.Context, e *Executor, provider, operation string, work func(context.Context) (T, error)) (T, error) {
	return execute(ctx, e, InstanceName(provider, operation), "", provider, operation, work)
}

// ExecuteNamed runs work under an explicitly named policy instance, so that
// several operations can share one breaker, limiter and bulkhead.
func ExecuteNamed[T any](ctx context.Context, e *Executor, instance, provider, operation string, work func(context.Context) (T, error)) (T, error) {
	return execute(ctx, e, instance, instance, provider, operation, work)
}

// ExecuteFunc is Execute for work that returns only an error.
func ExecuteFunc(ctx context.Context, e *Executor, provider, operation string, work func(context.Context) error) error {
	_, err := Execute(ctx, e, provider, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})
	return err
}

func execute[T any](ctx context.Context, e *Executor, instance, instanceTag, provider, operation string, work func(context.Context) (T, error)) (T, error) {
	start := e.now()

	if !e.enabled {
		v, err := callSafely(ctx, work)
		e.record(instanceTag, provider, operation, e.now().Sub(start), err)
		return v, err
	}

	var zero T
	p := e.registry.PolicyFor(instance, provider)

	permit, err := p.Breaker.Acquire()
	if err != nil {
		e.record(instanceTag, provider, operation, e.now().Sub(start), err)
		return zero, err
	}

	v, err := Retry(ctx, p.Retrier, func(int) (T, error) {
		if err := p.Limiter.Acquire(ctx); err != nil {
			return zero, err
		}
		release, err := p.Bulkhead.Acquire(ctx)
		if err != nil {
			return zero, err
		}
		return Limit(ctx, p.TimeLimiter, work, release)
	})

	elapsed := e.now().Sub(start)
	if countsForBreaker(ctx, err) {
		p.Breaker.Record(permit, elapsed, err)
	} else {
		p.Breaker.Release(permit)
	}
	e.record(instanceTag, provider, operation, elapsed, err)
	return v, err
}

// countsForBreaker reports whether an outcome says anything about the health
// of the provider. Local rejections and caller cancellation do not.
func countsForBreaker(ctx context.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrBulkheadFull):
		return false
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return false
	}
	return true
}

func (e *Executor) record(instance, provider, operation string, d time.Duration, err error) {
	o := NewOutcome(d, err)
	timerTags, counterTags := operationTags(instance, provider, operation, o)
	e.sink.RecordTimer(MetricOperation, timerTags, o.Duration)
	e.sink.IncrementCounter(MetricOperationCount, counterTags)
}

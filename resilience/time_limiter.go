package resilience

import (
	"context"
	"sync"
	"time"
)

// TimeLimiter bounds the duration of a single attempt.
type TimeLimiter struct {
	name   string
	config TimeLimiterConfig

	mu        sync.Mutex
	onTimeout []func(name string, timeout time.Duration)
}

// NewTimeLimiter creates a time limiter.
func NewTimeLimiter(name string, config TimeLimiterConfig) *TimeLimiter {
	config.ApplyDefaults()
	return &TimeLimiter{name: name, config: config}
}

// Name returns the instance name.
func (tl *TimeLimiter) Name() string { return tl.name }

// Timeout returns the per-attempt limit.
func (tl *TimeLimiter) Timeout() time.Duration { return tl.config.TimeoutDuration }

// OnTimeout registers fn to be called when an attempt times out.
func (tl *TimeLimiter) OnTimeout(fn func(name string, timeout time.Duration)) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onTimeout = append(tl.onTimeout, fn)
}

type attemptResult[T any] struct {
	value T
	err   error
}

// Limit races work against the configured timeout and returns whichever
// finishes first. On timeout the result is a *TimeoutError and, when
// CancelRunningFuture is set, the context passed to work is cancelled.
// Otherwise work keeps running until it returns on its own.
//
// onDone, if non-nil, runs exactly once when work actually returns, which may
// be after Limit has already returned. A panic in work is recovered and
// reported as a *PanicError.
func Limit[T any](ctx context.Context, tl *TimeLimiter, work func(context.Context) (T, error), onDone func()) (T, error) {
	var zero T

	attemptCtx, cancel := context.WithCancel(ctx)
	done := make(chan attemptResult[T], 1)

	go func() {
		defer cancel()
		v, err := callSafely(attemptCtx, work)
		if onDone != nil {
			onDone()
		}
		done <- attemptResult[T]{value: v, err: err}
	}()

	timer := time.NewTimer(tl.config.TimeoutDuration)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		if tl.config.CancelRunningFuture {
			cancel()
		}
		tl.timedOut()
		return zero, &TimeoutError{Name: tl.name, Timeout: tl.config.TimeoutDuration}
	case <-ctx.Done():
		cancel()
		return zero, ctx.Err()
	}
}

func callSafely[T any](ctx context.Context, work func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return work(ctx)
}

func (tl *TimeLimiter) timedOut() {
	tl.mu.Lock()
	listeners := append([]func(string, time.Duration){}, tl.onTimeout...)
	tl.mu.Unlock()
	for _, fn := range listeners {
		fn(tl.name, tl.config.TimeoutDuration)
	}
}

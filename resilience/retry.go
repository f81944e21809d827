package resilience

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Name    string
	Attempt int
	Err     error
	Backoff time.Duration
}

// Retrier is a retry template: it holds the attempt budget and backoff
// schedule for one named instance. It keeps no per-call state and is safe for
// concurrent use.
type Retrier struct {
	name    string
	config  RetryConfig
	retryIf func(error) bool

	mu          sync.Mutex
	onRetry     []func(RetryEvent)
	onExhausted []func(name string, attempts int, last error)
}

// NewRetrier creates a retry template. Errors are retried as decided by
// DefaultRetryIf.
func NewRetrier(name string, config RetryConfig) *Retrier {
	config.ApplyDefaults()
	return &Retrier{name: name, config: config, retryIf: DefaultRetryIf}
}

// Name returns the instance name.
func (r *Retrier) Name() string { return r.name }

// MaxAttempts returns the attempt budget, including the first attempt.
func (r *Retrier) MaxAttempts() int { return r.config.MaxAttempts }

// WithRetryIf replaces the retry predicate and returns the receiver.
func (r *Retrier) WithRetryIf(fn func(error) bool) *Retrier {
	if fn != nil {
		r.retryIf = fn
	}
	return r
}

// OnRetry registers fn to be called before each backoff wait.
func (r *Retrier) OnRetry(fn func(RetryEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRetry = append(r.onRetry, fn)
}

// OnExhausted registers fn to be called when every attempt failed.
func (r *Retrier) OnExhausted(fn func(name string, attempts int, last error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExhausted = append(r.onExhausted, fn)
}

// Backoff returns the wait after the given failed attempt (1-based):
// WaitDuration when exponential backoff is off, otherwise
// min(WaitDuration * multiplier^(attempt-1), ExponentialMaxWaitDuration).
func (r *Retrier) Backoff(attempt int) time.Duration {
	base := r.config.WaitDuration
	if !r.config.ExponentialBackoffEnabled || attempt <= 1 {
		return base
	}
	d := float64(base) * math.Pow(r.config.ExponentialBackoffMultiplier, float64(attempt-1))
	if max := float64(r.config.ExponentialMaxWaitDuration); d > max || math.IsInf(d, 0) {
		return r.config.ExponentialMaxWaitDuration
	}
	return time.Duration(d)
}

// DefaultRetryIf retries failures of the work itself. Policy rejections,
// context cancellation, panics, and errors that declare themselves
// non-retryable end the loop.
func DefaultRetryIf(err error) bool {
	if err == nil || IsPolicyRejection(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		return false
	}
	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. fn receives the 1-based attempt number.
//
// When at least two attempts ran and all failed, the result is a
// *RetryExhaustedError wrapping the last failure. A non-retryable failure, or
// a failure with a budget of one attempt, is returned unchanged.
func Retry[T any](ctx context.Context, r *Retrier, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !r.retryIf(err) {
			return zero, err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		backoff := r.Backoff(attempt)
		r.retrying(RetryEvent{Name: r.name, Attempt: attempt, Err: err, Backoff: backoff})

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	if r.config.MaxAttempts < 2 {
		return zero, lastErr
	}
	r.exhausted(lastErr)
	return zero, &RetryExhaustedError{Name: r.name, Attempts: r.config.MaxAttempts, Last: lastErr}
}

// RetryFunc runs an error-only function through Retry.
func RetryFunc(ctx context.Context, r *Retrier, fn func() error) error {
	_, err := Retry(ctx, r, func(int) (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (r *Retrier) retrying(ev RetryEvent) {
	r.mu.Lock()
	listeners := append([]func(RetryEvent){}, r.onRetry...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func (r *Retrier) exhausted(last error) {
	r.mu.Lock()
	listeners := append([]func(string, int, error){}, r.onExhausted...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(r.name, r.config.MaxAttempts, last)
	}
}

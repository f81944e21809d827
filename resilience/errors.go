package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Sentinel errors. Each typed policy error below matches its sentinel with
// errors.Is, so callers can branch on either form.
var (
	ErrCircuitOpen    = errors.New("circuit breaker is open")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrBulkheadFull   = errors.New("bulkhead is full")
	ErrTimeout        = errors.New("operation timed out")
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// Error kinds reported in metrics and by ErrorKind.
const (
	KindCircuitOpen       = "CircuitOpenError"
	KindRateLimitExceeded = "RateLimitExceededError"
	KindBulkheadFull      = "BulkheadFullError"
	KindRetryExhausted    = "RetryExhaustedError"
	KindTimeout           = "TimeoutError"
	KindPanic             = "PanicError"
)

// CircuitOpenError is returned when the breaker rejects a call without
// invoking the work.
type CircuitOpenError struct {
	Name  string
	State State
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is %s and does not permit further calls", e.Name, e.State)
}

// Is reports whether target is ErrCircuitOpen.
func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

// Kind returns the metrics error kind.
func (e *CircuitOpenError) Kind() string { return KindCircuitOpen }

// RateLimitExceededError is returned when no token was acquired within the
// configured timeout.
type RateLimitExceededError struct {
	Name    string
	Timeout time.Duration
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limiter %q did not permit the call within %s", e.Name, e.Timeout)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitExceededError) Is(target error) bool { return target == ErrRateLimited }

// Kind returns the metrics error kind.
func (e *RateLimitExceededError) Kind() string { return KindRateLimitExceeded }

// BulkheadFullError is returned when no concurrency slot was acquired within
// the configured wait.
type BulkheadFullError struct {
	Name          string
	MaxConcurrent int
	Waited        time.Duration
}

func (e *BulkheadFullError) Error() string {
	return fmt.Sprintf("bulkhead %q is full (max concurrent calls: %d)", e.Name, e.MaxConcurrent)
}

// Is reports whether target is ErrBulkheadFull.
func (e *BulkheadFullError) Is(target error) bool { return target == ErrBulkheadFull }

// Kind returns the metrics error kind.
func (e *BulkheadFullError) Kind() string { return KindBulkheadFull }

// TimeoutError is returned when a single attempt exceeded the time limit.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("time limiter %q: attempt exceeded %s", e.Name, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Kind returns the metrics error kind.
func (e *TimeoutError) Kind() string { return KindTimeout }

// RetryExhaustedError wraps the last failure after all attempts failed.
type RetryExhaustedError struct {
	Name     string
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry %q exhausted after %d attempts: %v", e.Name, e.Attempts, e.Last)
}

// Unwrap returns the last underlying failure.
func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// Is reports whether target is ErrRetryExhausted.
func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// Kind returns the metrics error kind.
func (e *RetryExhaustedError) Kind() string { return KindRetryExhausted }

// PanicError carries a value recovered from a panicking work function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("operation panicked: %v", e.Value) }

// Kind returns the metrics error kind.
func (e *PanicError) Kind() string { return KindPanic }

// IsPolicyRejection reports whether err was produced by a policy gate rather
// than by the wrapped work. Rejections are never retried.
func IsPolicyRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrTimeout)
}

// ErrorKind returns a short, stable name for err suitable as a metric tag.
// Errors may name themselves by implementing Kind() string; otherwise the
// concrete type name is used.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}

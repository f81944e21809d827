package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) *Retrier {
	return NewRetrier("test", RetryConfig{
		MaxAttempts:                  attempts,
		WaitDuration:                 time.Millisecond,
		ExponentialBackoffMultiplier: 2,
		ExponentialMaxWaitDuration:   10 * time.Millisecond,
		ExponentialBackoffEnabled:    true,
	})
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastRetry(3), func(int) (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastRetry(3), func(attempt int) (string, error) {
		callCount++
		if attempt != callCount {
			t.Errorf("expected attempt %d, got %d", callCount, attempt)
		}
		if callCount < 3 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_InvocationCount(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		failures    int
		want        int
	}{
		{"no failures", 3, 0, 1},
		{"one failure", 3, 1, 2},
		{"failures equal budget", 3, 3, 3},
		{"failures beyond budget", 3, 10, 3},
		{"single attempt", 1, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, _ = Retry(context.Background(), fastRetry(tt.maxAttempts), func(int) (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, errors.New("fail")
				}
				return calls, nil
			})
			if calls != tt.want {
				t.Errorf("expected %d invocations, got %d", tt.want, calls)
			}
		})
	}
}

func TestRetry_ExhaustedWrapsLastError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	_, err := Retry(context.Background(), fastRetry(3), func(int) (string, error) {
		calls++
		return "", boom
	})

	var ree *RetryExhaustedError
	if !errors.As(err, &ree) {
		t.Fatalf("expected *RetryExhaustedError, got %v", err)
	}
	if ree.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", ree.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected error to wrap boom, got %v", err)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected ErrRetryExhausted, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_SingleAttemptPassesErrorThrough(t *testing.T) {
	boom := errors.New("boom")

	_, err := Retry(context.Background(), fastRetry(1), func(int) (string, error) {
		return "", boom
	})

	if err != boom {
		t.Errorf("expected boom unchanged, got %v", err)
	}
}

func TestRetry_DoesNotRetryPolicyRejections(t *testing.T) {
	rejections := []error{
		&CircuitOpenError{Name: "x", State: StateOpen},
		&RateLimitExceededError{Name: "x"},
		&BulkheadFullError{Name: "x"},
		&TimeoutError{Name: "x"},
	}
	for _, rejection := range rejections {
		calls := 0
		_, err := Retry(context.Background(), fastRetry(3), func(int) (string, error) {
			calls++
			return "", rejection
		})
		if calls != 1 {
			t.Errorf("%T: expected 1 call, got %d", rejection, calls)
		}
		if err != rejection {
			t.Errorf("%T: expected rejection passed through, got %v", rejection, err)
		}
	}
}

type retryableErr struct{ retryable bool }

func (e retryableErr) Error() string     { return "retryable-aware" }
func (e retryableErr) IsRetryable() bool { return e.retryable }

func TestRetry_HonorsIsRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(3), func(int) (string, error) {
		calls++
		return "", retryableErr{retryable: false}
	})
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
	if _, ok := err.(retryableErr); !ok {
		t.Errorf("expected error passed through, got %v", err)
	}

	calls = 0
	_, _ = Retry(context.Background(), fastRetry(3), func(int) (string, error) {
		calls++
		return "", retryableErr{retryable: true}
	})
	if calls != 3 {
		t.Errorf("expected 3 calls for retryable error, got %d", calls)
	}
}

func TestRetry_WithRetryIf(t *testing.T) {
	retryable := errors.New("retryable")
	nonRetryable := errors.New("non-retryable")

	r := fastRetry(3).WithRetryIf(func(err error) bool {
		return errors.Is(err, retryable)
	})

	calls := 0
	_, err := Retry(context.Background(), r, func(int) (string, error) {
		calls++
		return "", nonRetryable
	})
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
	if !errors.Is(err, nonRetryable) {
		t.Errorf("expected nonRetryable, got %v", err)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	r := NewRetrier("test", RetryConfig{
		MaxAttempts:  10,
		WaitDuration: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	boom := errors.New("boom")
	callCount := 0
	_, err := Retry(ctx, r, func(int) (string, error) {
		callCount++
		return "", boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected last failure, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", callCount)
	}
}

func TestRetry_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastRetry(3), func(int) (string, error) {
		calls++
		return "", nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no attempts, got %d", calls)
	}
}

func TestRetrier_Backoff(t *testing.T) {
	r := NewRetrier("test", RetryConfig{
		MaxAttempts:                  5,
		WaitDuration:                 time.Second,
		ExponentialBackoffMultiplier: 2,
		ExponentialMaxWaitDuration:   5 * time.Second,
		ExponentialBackoffEnabled:    true,
	})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := r.Backoff(i + 1); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}

	fixed := NewRetrier("test", RetryConfig{WaitDuration: 300 * time.Millisecond})
	for attempt := 1; attempt <= 3; attempt++ {
		if got := fixed.Backoff(attempt); got != 300*time.Millisecond {
			t.Errorf("fixed attempt %d: expected 300ms, got %v", attempt, got)
		}
	}
}

func TestRetry_ExponentialDelaysBetweenAttempts(t *testing.T) {
	r := NewRetrier("test", RetryConfig{
		MaxAttempts:                  3,
		WaitDuration:                 10 * time.Millisecond,
		ExponentialBackoffMultiplier: 2,
		ExponentialMaxWaitDuration:   time.Second,
		ExponentialBackoffEnabled:    true,
	})

	var stamps []time.Time
	_, _ = Retry(context.Background(), r, func(int) (string, error) {
		stamps = append(stamps, time.Now())
		return "", errors.New("fail")
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	if d := stamps[1].Sub(stamps[0]); d < 10*time.Millisecond {
		t.Errorf("expected first delay >= 10ms, got %v", d)
	}
	if d := stamps[2].Sub(stamps[1]); d < 20*time.Millisecond {
		t.Errorf("expected second delay >= 20ms, got %v", d)
	}
}

func TestRetrier_Hooks(t *testing.T) {
	r := fastRetry(3)

	var events []RetryEvent
	var exhaustedAttempts int
	r.OnRetry(func(ev RetryEvent) { events = append(events, ev) })
	r.OnExhausted(func(_ string, attempts int, _ error) { exhaustedAttempts = attempts })

	_ = RetryFunc(context.Background(), r, func() error { return errors.New("fail") })

	if len(events) != 2 {
		t.Fatalf("expected 2 retry events, got %d", len(events))
	}
	if events[0].Attempt != 1 || events[1].Attempt != 2 {
		t.Errorf("unexpected attempts: %+v", events)
	}
	if events[1].Backoff != 2*time.Millisecond {
		t.Errorf("expected second backoff 2ms, got %v", events[1].Backoff)
	}
	if exhaustedAttempts != 3 {
		t.Errorf("expected exhausted after 3 attempts, got %d", exhaustedAttempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("x"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"panic", &PanicError{Value: "x"}, false},
		{"timeout", &TimeoutError{}, false},
		{"circuit open", &CircuitOpenError{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

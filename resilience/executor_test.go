package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestExecutor(cfg Config) (*Executor, *MemorySink) {
	sink := NewMemorySink()
	return NewExecutor(NewRegistry(cfg, nil), sink), sink
}

func TestExecute_Success(t *testing.T) {
	exec, sink := newTestExecutor(testConfig())

	v, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (string, error) {
		return "pay_1", nil
	})

	if err != nil || v != "pay_1" {
		t.Fatalf("expected pay_1, got %q, %v", v, err)
	}

	timers := sink.Timers(MetricOperation)
	if len(timers) != 1 {
		t.Fatalf("expected 1 timer sample, got %d", len(timers))
	}
	want := map[string]string{TagProvider: "stripe", TagOperation: "payment", TagStatus: StatusSuccess}
	if !tagsMatch(timers[0].Tags, want) || len(timers[0].Tags) != len(want) {
		t.Errorf("unexpected timer tags: %v", timers[0].Tags)
	}
	if n := sink.Count(MetricOperationCount, want); n != 1 {
		t.Errorf("expected 1 success count, got %d", n)
	}
	if _, ok := exec.Registry().Lookup("stripe-payment"); !ok {
		t.Error("expected policy stripe-payment to be created")
	}
}

func TestExecute_RetriesAndWrapsLastFailure(t *testing.T) {
	exec, sink := newTestExecutor(testConfig())
	boom := errors.New("boom")

	var calls int32
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", boom
	})

	if calls != 3 {
		t.Errorf("expected 3 invocations, got %d", calls)
	}
	var ree *RetryExhaustedError
	if !errors.As(err, &ree) || !errors.Is(err, boom) {
		t.Fatalf("expected RetryExhaustedError wrapping boom, got %v", err)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{
		TagStatus: StatusFailure,
		TagError:  KindRetryExhausted,
	}); n != 1 {
		t.Errorf("expected 1 failure count tagged RetryExhaustedError, got %d", n)
	}
	if len(sink.Timers(MetricOperation)) != 1 {
		t.Error("expected exactly one timer sample per logical call")
	}
}

func TestExecute_OpenCircuitSkipsWork(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	exec, sink := newTestExecutor(cfg)

	for i := 0; i < cfg.CircuitBreaker.MinimumNumberOfCalls; i++ {
		_, _ = Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
			return 0, errors.New("fail")
		})
	}
	sink.Reset()

	var calls int32
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected work not to run, got %d calls", calls)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagError: KindCircuitOpen}); n != 1 {
		t.Errorf("expected circuit-open failure to be counted, got %d", n)
	}
}

func TestExecute_TimeoutIsNotRetried(t *testing.T) {
	cfg := testConfig()
	cfg.TimeLimiter.TimeoutDuration = 100 * time.Millisecond
	exec, _ := newTestExecutor(cfg)

	var calls int32
	start := time.Now()
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-time.After(2 * time.Second):
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected result near the timeout, took %v", elapsed)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestExecute_PassesThroughNonRetryableError(t *testing.T) {
	exec, _ := newTestExecutor(testConfig())
	declined := retryableErr{retryable: false}

	var calls int32
	_, err := Execute(context.Background(), exec, "adyen", "refund", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, declined
	})

	if err != error(declined) {
		t.Errorf("expected the work error unchanged, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestExecute_RecoversToSuccess(t *testing.T) {
	exec, sink := newTestExecutor(testConfig())

	var calls int32
	v, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int32, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			return 0, errors.New("transient")
		}
		return n, nil
	})

	if err != nil || v != 2 {
		t.Fatalf("expected success on attempt 2, got %d, %v", v, err)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagStatus: StatusSuccess}); n != 1 {
		t.Errorf("expected 1 success count, got %d", n)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagStatus: StatusFailure}); n != 0 {
		t.Errorf("expected no failure count, got %d", n)
	}
}

func TestExecute_RateLimitRejection(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter = RateLimiterConfig{
		LimitForPeriod:     1,
		LimitRefreshPeriod: time.Hour,
		TimeoutDuration:    time.Millisecond,
	}
	exec, _ := newTestExecutor(cfg)

	work := func(context.Context) (int, error) { return 1, nil }
	if _, err := Execute(context.Background(), exec, "stripe", "payment", work); err != nil {
		t.Fatalf("first call should pass, got %v", err)
	}

	_, err := Execute(context.Background(), exec, "stripe", "payment", work)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	m := exec.Registry().Policy("stripe-payment").Breaker.Metrics()
	if m.Calls != 1 || m.FailedCalls != 0 {
		t.Errorf("rate-limit rejection must not count against the breaker, got %+v", m)
	}
}

func TestExecute_BulkheadRejection(t *testing.T) {
	cfg := testConfig()
	cfg.Bulkhead = BulkheadConfig{MaxConcurrentCalls: 1, MaxWaitDuration: 10 * time.Millisecond}
	exec, _ := newTestExecutor(cfg)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		return 1, nil
	})
	close(release)

	if !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}
}

func TestExecute_BulkheadSlotHeldUntilWorkReturns(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	cfg.Bulkhead = BulkheadConfig{MaxConcurrentCalls: 1}
	cfg.TimeLimiter = TimeLimiterConfig{TimeoutDuration: 10 * time.Millisecond}
	exec, _ := newTestExecutor(cfg)

	release := make(chan struct{})
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	bh := exec.Registry().Policy("stripe-payment").Bulkhead
	if bh.InUse() != 1 {
		t.Fatalf("expected slot held by abandoned work, got %d in use", bh.InUse())
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for bh.InUse() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if bh.InUse() != 0 {
		t.Error("expected slot released once work returned")
	}
}

func TestExecute_PeakConcurrencyBoundedByBulkhead(t *testing.T) {
	cfg := testConfig()
	cfg.Bulkhead = BulkheadConfig{MaxConcurrentCalls: 3, MaxWaitDuration: 5 * time.Second}
	exec, _ := newTestExecutor(cfg)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return 1, nil
			})
		}()
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency %d exceeded 3", peak)
	}
}

func TestExecute_InstancesAreIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	exec, _ := newTestExecutor(cfg)

	for i := 0; i < cfg.CircuitBreaker.MinimumNumberOfCalls; i++ {
		_, _ = Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
			return 0, errors.New("fail")
		})
	}

	if _, err := Execute(context.Background(), exec, "stripe", "refund", func(context.Context) (int, error) {
		return 1, nil
	}); err != nil {
		t.Errorf("expected stripe-refund unaffected, got %v", err)
	}
	if _, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		return 1, nil
	}); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected stripe-payment open, got %v", err)
	}
}

func TestExecuteNamed_SharesInstanceAcrossOperations(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	exec, sink := newTestExecutor(cfg)

	for i := 0; i < cfg.CircuitBreaker.MinimumNumberOfCalls; i++ {
		_, _ = ExecuteNamed(context.Background(), exec, "stripe-api", "stripe", "payment", func(context.Context) (int, error) {
			return 0, errors.New("fail")
		})
	}

	_, err := ExecuteNamed(context.Background(), exec, "stripe-api", "stripe", "refund", func(context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected shared breaker to be open, got %v", err)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagInstance: "stripe-api", TagOperation: "refund"}); n != 1 {
		t.Errorf("expected instance tag on named execution, got %d", n)
	}
}

func TestExecute_HalfOpenAfterWait(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	exec, _ := newTestExecutor(cfg)
	fail := func(context.Context) (int, error) { return 0, errors.New("fail") }

	for i := 0; i < cfg.CircuitBreaker.MinimumNumberOfCalls; i++ {
		_, _ = Execute(context.Background(), exec, "stripe", "payment", fail)
	}
	breaker := exec.Registry().Policy("stripe-payment").Breaker
	if breaker.State() != StateOpen {
		t.Fatalf("expected OPEN, got %s", breaker.State())
	}

	time.Sleep(cfg.CircuitBreaker.WaitDurationInOpenState + 10*time.Millisecond)

	var calls int32
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("expected trial call through, got err=%v calls=%d", err, calls)
	}
	if breaker.State() != StateHalfOpen {
		t.Errorf("expected HALF_OPEN after one of two trial calls, got %s", breaker.State())
	}
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	exec, sink := newTestExecutor(testConfig())

	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		panic("kaboom")
	})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagError: KindPanic}); n != 1 {
		t.Errorf("expected panic to be counted, got %d", n)
	}
}

func TestExecute_CallerCancellationReleasesBreakerPermit(t *testing.T) {
	cfg := testConfig()
	exec, _ := newTestExecutor(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, exec, "stripe", "payment", func(context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if m := exec.Registry().Policy("stripe-payment").Breaker.Metrics(); m.Calls != 0 {
		t.Errorf("cancellation must not be recorded, got %+v", m)
	}
}

func TestExecute_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	exec, sink := newTestExecutor(cfg)

	var calls int32
	_, err := Execute(context.Background(), exec, "stripe", "payment", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("boom")
	})

	if err == nil || err.Error() != "boom" {
		t.Errorf("expected raw error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no retries when disabled, got %d calls", calls)
	}
	if len(exec.Registry().Names()) != 0 {
		t.Error("expected no policies to be created when disabled")
	}
	if n := sink.Count(MetricOperationCount, map[string]string{TagStatus: StatusFailure}); n != 1 {
		t.Errorf("expected metrics even when disabled, got %d", n)
	}
}

func TestExecuteFunc(t *testing.T) {
	exec, _ := newTestExecutor(testConfig())

	called := false
	err := ExecuteFunc(context.Background(), exec, "stripe", "webhook", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("expected call to succeed, got %v", err)
	}
}

func TestInstanceName(t *testing.T) {
	if got := InstanceName("stripe", "payment"); got != "stripe-payment" {
		t.Errorf("expected stripe-payment, got %q", got)
	}
}

package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_AllowsRequestsWithinLimit(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 3})

	var callCount int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				atomic.AddInt32(&callCount, 1)
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
	if b.InUse() != 0 {
		t.Errorf("expected all slots released, got %d in use", b.InUse())
	}
}

func TestBulkhead_RejectsImmediatelyWithZeroWait(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 1})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = b.Acquire(context.Background())
	if !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Errorf("expected immediate rejection, took %v", time.Since(start))
	}
}

func TestBulkhead_RejectsAfterMaxWait(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{
		MaxConcurrentCalls: 1,
		MaxWaitDuration:    30 * time.Millisecond,
	})

	release, _ := b.Acquire(context.Background())
	defer release()

	start := time.Now()
	_, err := b.Acquire(context.Background())

	var bfe *BulkheadFullError
	if !errors.As(err, &bfe) {
		t.Fatalf("expected *BulkheadFullError, got %v", err)
	}
	if bfe.MaxConcurrent != 1 || bfe.Waited != 30*time.Millisecond {
		t.Errorf("unexpected error detail: %+v", bfe)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("expected to wait about 30ms, waited %v", elapsed)
	}
}

func TestBulkhead_WaitsForFreedSlot(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{
		MaxConcurrentCalls: 1,
		MaxWaitDuration:    time.Second,
	})

	release, _ := b.Acquire(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	release2, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
	release2()
}

func TestBulkhead_AcquireRespectsContext(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{
		MaxConcurrentCalls: 1,
		MaxWaitDuration:    time.Second,
	})
	release, _ := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_ReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 2})

	r1, _ := b.Acquire(context.Background())
	r2, _ := b.Acquire(context.Background())

	r1()
	r1()
	if b.InUse() != 1 {
		t.Errorf("expected 1 slot in use, got %d", b.InUse())
	}
	r2()
	if b.Available() != 2 {
		t.Errorf("expected 2 available, got %d", b.Available())
	}
}

func TestBulkhead_ReleasesOnError(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 1})

	err := b.Execute(context.Background(), func() error {
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if b.Available() != 1 {
		t.Errorf("expected slot released after failure, got %d available", b.Available())
	}
}

func TestBulkhead_Hooks(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 1})

	var rejected, released int
	b.OnReject(func(string) { rejected++ })
	b.OnRelease(func(_ string, available int) {
		released++
		if available != 1 {
			t.Errorf("expected 1 available on release, got %d", available)
		}
	})

	release, _ := b.Acquire(context.Background())
	_, _ = b.Acquire(context.Background())
	release()

	if rejected != 1 || released != 1 {
		t.Errorf("expected 1 rejection and 1 release, got %d and %d", rejected, released)
	}
}

func TestBulkhead_NeverExceedsCapacity(t *testing.T) {
	const capacity = 4
	b := NewBulkhead("test", BulkheadConfig{
		MaxConcurrentCalls: capacity,
		MaxWaitDuration:    5 * time.Second,
	})

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if peak > capacity {
		t.Errorf("peak concurrency %d exceeded capacity %d", peak, capacity)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead("test", BulkheadConfig{MaxConcurrentCalls: 1})

	result, err := ExecuteWithResult(context.Background(), b, func() (string, error) {
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Errorf("expected ok, got %q, %v", result, err)
	}
}

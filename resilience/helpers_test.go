package resilience

import (
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testConfig returns a config with short durations suitable for tests.
func testConfig() Config {
	return Config{
		Enabled: true,
		CircuitBreaker: CircuitBreakerConfig{
			FailureRateThreshold:                  50,
			MinimumNumberOfCalls:                  4,
			WaitDurationInOpenState:               50 * time.Millisecond,
			PermittedNumberOfCallsInHalfOpenState: 2,
			SlidingWindowSize:                     10,
			SlowCallDurationThreshold:             time.Second,
			SlowCallRateThreshold:                 100,
		},
		RateLimiter: RateLimiterConfig{
			LimitForPeriod:     1000,
			LimitRefreshPeriod: time.Second,
			TimeoutDuration:    10 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts:                  3,
			WaitDuration:                 time.Millisecond,
			ExponentialBackoffMultiplier: 2,
			ExponentialMaxWaitDuration:   10 * time.Millisecond,
			ExponentialBackoffEnabled:    true,
		},
		Bulkhead: BulkheadConfig{
			MaxConcurrentCalls: 10,
			MaxWaitDuration:    50 * time.Millisecond,
		},
		TimeLimiter: TimeLimiterConfig{
			TimeoutDuration:     time.Second,
			CancelRunningFuture: true,
		},
	}
}

package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a fixed-period token bucket: at the start of every
// LimitRefreshPeriod the bucket is refilled to LimitForPeriod tokens.
// Unused tokens do not accumulate past LimitForPeriod.
//
// A caller that cannot be served in the current period reserves a token from
// a future period if that period starts within TimeoutDuration, and waits for
// it; otherwise the call is rejected immediately.
type RateLimiter struct {
	name   string
	config RateLimiterConfig
	now    func() time.Time

	mu        sync.Mutex
	start     time.Time
	cycle     int64
	permits   int
	listeners []func(name string)
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(name string, config RateLimiterConfig) *RateLimiter {
	config.ApplyDefaults()
	rl := &RateLimiter{
		name:    name,
		config:  config,
		now:     time.Now,
		permits: config.LimitForPeriod,
	}
	rl.start = rl.now()
	return rl
}

// Name returns the instance name.
func (rl *RateLimiter) Name() string { return rl.name }

// OnReject registers fn to be called whenever a call is denied a token.
func (rl *RateLimiter) OnReject(fn func(name string)) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.listeners = append(rl.listeners, fn)
}

// Acquire obtains one token, waiting up to TimeoutDuration.
// Returns a *RateLimitExceededError when no token can be obtained in time,
// or the context error if ctx ends while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	wait, ok := rl.reserve(rl.config.TimeoutDuration)
	if !ok {
		rl.rejected()
		return &RateLimitExceededError{Name: rl.name, Timeout: rl.config.TimeoutDuration}
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TryAcquire takes a token only if one is available right now.
func (rl *RateLimiter) TryAcquire() bool {
	if _, ok := rl.reserve(0); ok {
		return true
	}
	rl.rejected()
	return false
}

// Execute acquires a token and runs fn.
func (rl *RateLimiter) Execute(ctx context.Context, fn func() error) error {
	if err := rl.Acquire(ctx); err != nil {
		return err
	}
	return fn()
}

// AvailablePermits returns the tokens left in the current period.
// Negative values are tokens already reserved from future periods.
func (rl *RateLimiter) AvailablePermits() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refresh(rl.now())
	return rl.permits
}

// LimitForPeriod returns the configured tokens per period.
func (rl *RateLimiter) LimitForPeriod() int {
	return rl.config.LimitForPeriod
}

// reserve takes a token from the current or a future period. It returns how
// long the caller must wait for the reserved token, and false (reserving
// nothing) when that wait would exceed timeout.
func (rl *RateLimiter) reserve(timeout time.Duration) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.refresh(now)

	if rl.permits > 0 {
		rl.permits--
		return 0, true
	}

	limit := rl.config.LimitForPeriod
	period := rl.config.LimitRefreshPeriod
	deficit := 1 - rl.permits
	cycles := (deficit + limit - 1) / limit

	nextCycle := rl.start.Add(time.Duration(rl.cycle+1) * period)
	wait := nextCycle.Sub(now) + time.Duration(cycles-1)*period
	if wait > timeout {
		return wait, false
	}
	rl.permits--
	return wait, true
}

// refresh credits tokens for every period boundary crossed. Caller holds mu.
func (rl *RateLimiter) refresh(now time.Time) {
	current := int64(now.Sub(rl.start) / rl.config.LimitRefreshPeriod)
	if current <= rl.cycle {
		return
	}
	limit := int64(rl.config.LimitForPeriod)
	gap := current - rl.cycle
	if gap*limit >= limit-int64(rl.permits) {
		rl.permits = rl.config.LimitForPeriod
	} else {
		rl.permits += int(gap * limit)
	}
	rl.cycle = current
}

func (rl *RateLimiter) rejected() {
	rl.mu.Lock()
	listeners := append([]func(string){}, rl.listeners...)
	rl.mu.Unlock()
	for _, fn := range listeners {
		fn(rl.name)
	}
}

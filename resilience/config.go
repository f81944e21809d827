package resilience

import (
	"fmt"
	"time"
)

// Config is the process-wide policy configuration. It is loaded once at
// startup and every Policy created by a Registry is built from it.
type Config struct {
	Enabled        bool                 `yaml:"enabled" mapstructure:"enabled"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Retry          RetryConfig          `yaml:"retry" mapstructure:"retry"`
	Bulkhead       BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
	TimeLimiter    TimeLimiterConfig    `yaml:"time_limiter" mapstructure:"time_limiter"`
}

// CircuitBreakerConfig configures a sliding-window circuit breaker.
type CircuitBreakerConfig struct {
	// FailureRateThreshold is the failure percentage (0-100) that opens the circuit.
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	// MinimumNumberOfCalls is the number of recorded calls required before rates are evaluated.
	MinimumNumberOfCalls int `yaml:"minimum_number_of_calls" mapstructure:"minimum_number_of_calls"`
	// WaitDurationInOpenState is how long the circuit stays open before probing.
	WaitDurationInOpenState time.Duration `yaml:"wait_duration_in_open_state" mapstructure:"wait_duration_in_open_state"`
	// PermittedNumberOfCallsInHalfOpenState is the number of trial calls in half-open.
	PermittedNumberOfCallsInHalfOpenState int `yaml:"permitted_number_of_calls_in_half_open_state" mapstructure:"permitted_number_of_calls_in_half_open_state"`
	// SlidingWindowSize is the number of most recent outcomes kept.
	SlidingWindowSize int `yaml:"sliding_window_size" mapstructure:"sliding_window_size"`
	// SlowCallDurationThreshold marks a call as slow when its duration reaches it.
	SlowCallDurationThreshold time.Duration `yaml:"slow_call_duration_threshold" mapstructure:"slow_call_duration_threshold"`
	// SlowCallRateThreshold is the slow percentage (0-100) that opens the circuit.
	// 100 disables slow-call tripping.
	SlowCallRateThreshold float64 `yaml:"slow_call_rate_threshold" mapstructure:"slow_call_rate_threshold"`
}

// RateLimiterConfig configures a fixed-period token bucket.
type RateLimiterConfig struct {
	LimitForPeriod     int           `yaml:"limit_for_period" mapstructure:"limit_for_period"`
	LimitRefreshPeriod time.Duration `yaml:"limit_refresh_period" mapstructure:"limit_refresh_period"`
	// TimeoutDuration is the longest a caller waits for a token.
	TimeoutDuration time.Duration `yaml:"timeout_duration" mapstructure:"timeout_duration"`
}

// RetryConfig configures retry attempts and backoff.
type RetryConfig struct {
	// MaxAttempts includes the first attempt.
	MaxAttempts                  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	WaitDuration                 time.Duration `yaml:"wait_duration" mapstructure:"wait_duration"`
	ExponentialBackoffMultiplier float64       `yaml:"exponential_backoff_multiplier" mapstructure:"exponential_backoff_multiplier"`
	ExponentialMaxWaitDuration   time.Duration `yaml:"exponential_max_wait_duration" mapstructure:"exponential_max_wait_duration"`
	ExponentialBackoffEnabled    bool          `yaml:"exponential_backoff_enabled" mapstructure:"exponential_backoff_enabled"`
}

// BulkheadConfig configures the concurrency cap.
type BulkheadConfig struct {
	MaxConcurrentCalls int           `yaml:"max_concurrent_calls" mapstructure:"max_concurrent_calls"`
	MaxWaitDuration    time.Duration `yaml:"max_wait_duration" mapstructure:"max_wait_duration"`
}

// TimeLimiterConfig configures the per-attempt timeout.
type TimeLimiterConfig struct {
	TimeoutDuration     time.Duration `yaml:"timeout_duration" mapstructure:"timeout_duration"`
	CancelRunningFuture bool          `yaml:"cancel_running_future" mapstructure:"cancel_running_future"`
}

// DefaultConfig returns the default policy configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		RateLimiter:    DefaultRateLimiterConfig(),
		Retry:          DefaultRetryConfig(),
		Bulkhead:       DefaultBulkheadConfig(),
		TimeLimiter:    DefaultTimeLimiterConfig(),
	}
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureRateThreshold:                  50,
		MinimumNumberOfCalls:                  10,
		WaitDurationInOpenState:               60 * time.Second,
		PermittedNumberOfCallsInHalfOpenState: 5,
		SlidingWindowSize:                     100,
		SlowCallDurationThreshold:             10 * time.Second,
		SlowCallRateThreshold:                 100,
	}
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		LimitForPeriod:     50,
		LimitRefreshPeriod: time.Second,
		TimeoutDuration:    5 * time.Second,
	}
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:                  3,
		WaitDuration:                 time.Second,
		ExponentialBackoffMultiplier: 2.0,
		ExponentialMaxWaitDuration:   10 * time.Second,
		ExponentialBackoffEnabled:    true,
	}
}

// DefaultBulkheadConfig returns sensible defaults.
func DefaultBulkheadConfig() BulkheadConfig {
	return BulkheadConfig{
		MaxConcurrentCalls: 25,
		MaxWaitDuration:    500 * time.Millisecond,
	}
}

// DefaultTimeLimiterConfig returns sensible defaults.
func DefaultTimeLimiterConfig() TimeLimiterConfig {
	return TimeLimiterConfig{
		TimeoutDuration:     30 * time.Second,
		CancelRunningFuture: true,
	}
}

// ApplyDefaults fills zero-valued fields with defaults. Enabled is left as is
// because false is a meaningful setting; config.PSPConfig seeds it to true.
func (c *Config) ApplyDefaults() {
	c.CircuitBreaker.ApplyDefaults()
	c.RateLimiter.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Bulkhead.ApplyDefaults()
	c.TimeLimiter.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	cb := c.CircuitBreaker
	if cb.FailureRateThreshold <= 0 || cb.FailureRateThreshold > 100 {
		return fmt.Errorf("resilience.circuit_breaker.failure_rate_threshold must be in (0, 100] (got: %v)", cb.FailureRateThreshold)
	}
	if cb.SlowCallRateThreshold <= 0 || cb.SlowCallRateThreshold > 100 {
		return fmt.Errorf("resilience.circuit_breaker.slow_call_rate_threshold must be in (0, 100] (got: %v)", cb.SlowCallRateThreshold)
	}
	if cb.MinimumNumberOfCalls > cb.SlidingWindowSize {
		return fmt.Errorf("resilience.circuit_breaker.minimum_number_of_calls (%d) exceeds sliding_window_size (%d)",
			cb.MinimumNumberOfCalls, cb.SlidingWindowSize)
	}
	if err := c.RateLimiter.Validate(); err != nil {
		return fmt.Errorf("resilience.rate_limiter.%w", err)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("resilience.retry.max_attempts must be positive (got: %d)", c.Retry.MaxAttempts)
	}
	if c.Retry.ExponentialBackoffMultiplier < 1 {
		return fmt.Errorf("resilience.retry.exponential_backoff_multiplier must be >= 1 (got: %v)", c.Retry.ExponentialBackoffMultiplier)
	}
	if c.Bulkhead.MaxConcurrentCalls <= 0 {
		return fmt.Errorf("resilience.bulkhead.max_concurrent_calls must be positive (got: %d)", c.Bulkhead.MaxConcurrentCalls)
	}
	if c.TimeLimiter.TimeoutDuration <= 0 {
		return fmt.Errorf("resilience.time_limiter.timeout_duration must be positive (got: %v)", c.TimeLimiter.TimeoutDuration)
	}
	return nil
}

// Validate checks the limiter settings. Messages name the keys relative to
// the section holding the limiter.
func (c *RateLimiterConfig) Validate() error {
	if c.LimitForPeriod <= 0 {
		return fmt.Errorf("limit_for_period must be positive (got: %d)", c.LimitForPeriod)
	}
	if c.LimitRefreshPeriod <= 0 {
		return fmt.Errorf("limit_refresh_period must be positive (got: %v)", c.LimitRefreshPeriod)
	}
	if c.TimeoutDuration < 0 {
		return fmt.Errorf("timeout_duration must not be negative (got: %v)", c.TimeoutDuration)
	}
	return nil
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *CircuitBreakerConfig) ApplyDefaults() {
	d := DefaultCircuitBreakerConfig()
	if c.FailureRateThreshold == 0 {
		c.FailureRateThreshold = d.FailureRateThreshold
	}
	if c.MinimumNumberOfCalls == 0 {
		c.MinimumNumberOfCalls = d.MinimumNumberOfCalls
	}
	if c.WaitDurationInOpenState == 0 {
		c.WaitDurationInOpenState = d.WaitDurationInOpenState
	}
	if c.PermittedNumberOfCallsInHalfOpenState == 0 {
		c.PermittedNumberOfCallsInHalfOpenState = d.PermittedNumberOfCallsInHalfOpenState
	}
	if c.SlidingWindowSize == 0 {
		c.SlidingWindowSize = d.SlidingWindowSize
	}
	if c.SlowCallDurationThreshold == 0 {
		c.SlowCallDurationThreshold = d.SlowCallDurationThreshold
	}
	if c.SlowCallRateThreshold == 0 {
		c.SlowCallRateThreshold = d.SlowCallRateThreshold
	}
}

// ApplyDefaults fills a zero limit and refresh period with defaults. A zero
// TimeoutDuration is kept: such a limiter rejects as soon as the current
// period is exhausted.
func (c *RateLimiterConfig) ApplyDefaults() {
	d := DefaultRateLimiterConfig()
	if c.LimitForPeriod == 0 {
		c.LimitForPeriod = d.LimitForPeriod
	}
	if c.LimitRefreshPeriod == 0 {
		c.LimitRefreshPeriod = d.LimitRefreshPeriod
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *RetryConfig) ApplyDefaults() {
	d := DefaultRetryConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.WaitDuration == 0 {
		c.WaitDuration = d.WaitDuration
	}
	if c.ExponentialBackoffMultiplier == 0 {
		c.ExponentialBackoffMultiplier = d.ExponentialBackoffMultiplier
	}
	if c.ExponentialMaxWaitDuration == 0 {
		c.ExponentialMaxWaitDuration = d.ExponentialMaxWaitDuration
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *BulkheadConfig) ApplyDefaults() {
	if c.MaxConcurrentCalls == 0 {
		c.MaxConcurrentCalls = DefaultBulkheadConfig().MaxConcurrentCalls
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *TimeLimiterConfig) ApplyDefaults() {
	if c.TimeoutDuration == 0 {
		c.TimeoutDuration = DefaultTimeLimiterConfig().TimeoutDuration
	}
}

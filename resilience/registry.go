package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/kbukum/pspkit/logger"
)

// Policy groups the policy instances sharing one instance name.
type Policy struct {
	Name string
	// provider is the tag of the first call that used the policy with a
	// provider. Guarded by Registry.mu.
	provider    string
	Breaker     *CircuitBreaker
	Limiter     *RateLimiter
	Bulkhead    *Bulkhead
	Retrier     *Retrier
	TimeLimiter *TimeLimiter
}

// PolicySnapshot is a read-only view of one Policy.
type PolicySnapshot struct {
	Name              string         `json:"name"`
	Provider          string         `json:"provider,omitempty"`
	Breaker           BreakerMetrics `json:"-"`
	State             string         `json:"state"`
	FailureRate       float64        `json:"failure_rate"`
	SlowCallRate      float64        `json:"slow_call_rate"`
	Calls             int            `json:"calls"`
	FailedCalls       int            `json:"failed_calls"`
	SlowCalls         int            `json:"slow_calls"`
	AvailablePermits  int            `json:"available_permits"`
	BulkheadAvailable int            `json:"bulkhead_available"`
}

// Registry lazily creates and caches one Policy per instance name. Every
// policy is built from the same Config and lives for the life of the
// registry. Distinct names share no state.
type Registry struct {
	config Config
	log    *logger.Logger

	mu          sync.RWMutex
	policies    map[string]*Policy
	transitions []func(StateTransition)
}

// NewRegistry creates an empty registry. Zero-valued policy settings are
// filled with defaults.
func NewRegistry(config Config, log *logger.Logger) *Registry {
	config.ApplyDefaults()
	if log == nil {
		log = logger.Get("resilience")
	}
	return &Registry{
		config:   config,
		log:      log,
		policies: make(map[string]*Policy),
	}
}

// Config returns the configuration policies are built from.
func (r *Registry) Config() Config { return r.config }

// OnTransition registers fn to be called on every breaker transition of
// every policy, including those created later.
func (r *Registry) OnTransition(fn func(StateTransition)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, fn)
}

// Policy returns the policy for name, creating it on first use.
func (r *Registry) Policy(name string) *Policy {
	return r.PolicyFor(name, "")
}

// PolicyFor returns the policy for name, creating it on first use, and tags
// it with provider unless it already carries a provider tag. Snapshots report
// the tag, so health can be attributed by provider rather than by name.
func (r *Registry) PolicyFor(name, provider string) *Policy {
	r.mu.RLock()
	p, ok := r.policies[name]
	tagged := ok && (provider == "" || p.provider != "")
	r.mu.RUnlock()
	if tagged {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok = r.policies[name]
	if !ok {
		p = r.newPolicy(name)
		r.policies[name] = p
		r.log.Debug("Resilience policy created", logger.Fields(
			logger.FieldInstance, name,
			logger.FieldProvider, provider,
		))
	}
	if p.provider == "" {
		p.provider = provider
	}
	return p
}

// Lookup returns the policy for name without creating it.
func (r *Registry) Lookup(name string) (*Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// Names returns the known instance names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Snapshots returns a snapshot of every known policy, sorted by name.
func (r *Registry) Snapshots() []PolicySnapshot {
	return r.snapshots(func(*Policy) bool { return true })
}

// ProviderSnapshots returns snapshots of the policies tagged with provider,
// sorted by name.
func (r *Registry) ProviderSnapshots(provider string) []PolicySnapshot {
	return r.snapshots(func(p *Policy) bool { return p.provider == provider })
}

func (r *Registry) snapshots(keep func(*Policy) bool) []PolicySnapshot {
	type tagged struct {
		p        *Policy
		provider string
	}
	r.mu.RLock()
	selected := make([]tagged, 0, len(r.policies))
	for _, p := range r.policies {
		if keep(p) {
			selected = append(selected, tagged{p, p.provider})
		}
	}
	r.mu.RUnlock()
	sort.Slice(selected, func(i, j int) bool { return selected[i].p.Name < selected[j].p.Name })

	out := make([]PolicySnapshot, 0, len(selected))
	for _, t := range selected {
		p := t.p
		state := p.Breaker.State()
		m := p.Breaker.Metrics()
		out = append(out, PolicySnapshot{
			Name:              p.Name,
			Provider:          t.provider,
			Breaker:           m,
			State:             state.String(),
			FailureRate:       m.FailureRate,
			SlowCallRate:      m.SlowCallRate,
			Calls:             m.Calls,
			FailedCalls:       m.FailedCalls,
			SlowCalls:         m.SlowCalls,
			AvailablePermits:  p.Limiter.AvailablePermits(),
			BulkheadAvailable: p.Bulkhead.Available(),
		})
	}
	return out
}

// newPolicy builds the policy instances and hooks up event logging.
// Caller holds mu.
func (r *Registry) newPolicy(name string) *Policy {
	p := &Policy{
		Name:        name,
		Breaker:     NewCircuitBreaker(name, r.config.CircuitBreaker),
		Limiter:     NewRateLimiter(name, r.config.RateLimiter),
		Bulkhead:    NewBulkhead(name, r.config.Bulkhead),
		Retrier:     NewRetrier(name, r.config.Retry),
		TimeLimiter: NewTimeLimiter(name, r.config.TimeLimiter),
	}

	log := r.log
	p.Breaker.OnStateChange(func(t StateTransition) {
		log.Warn("Circuit breaker state changed", logger.Fields(
			logger.FieldInstance, t.Name,
			logger.FieldFromState, t.From.String(),
			logger.FieldToState, t.To.String(),
			"failure_rate", t.FailureRate,
			"slow_call_rate", t.SlowCallRate,
		))
		r.mu.RLock()
		listeners := append([]func(StateTransition){}, r.transitions...)
		r.mu.RUnlock()
		for _, fn := range listeners {
			fn(t)
		}
	})
	p.Limiter.OnReject(func(name string) {
		log.Warn("Rate limit exceeded", logger.Fields(logger.FieldInstance, name))
	})
	p.Bulkhead.OnReject(func(name string) {
		log.Warn("Bulkhead rejected call", logger.Fields(logger.FieldInstance, name))
	})
	p.Retrier.OnRetry(func(ev RetryEvent) {
		log.Debug("Retrying operation", logger.MergeWithError(logger.Fields(
			logger.FieldInstance, ev.Name,
			logger.FieldAttempt, ev.Attempt,
			"backoff_ms", ev.Backoff.Milliseconds(),
		), ev.Err))
	})
	p.Retrier.OnExhausted(func(name string, attempts int, last error) {
		log.Error("Retry attempts exhausted", logger.MergeWithError(logger.Fields(
			logger.FieldInstance, name,
			logger.FieldAttempt, attempts,
		), last))
	})
	p.TimeLimiter.OnTimeout(func(name string, timeout time.Duration) {
		log.Warn("Operation timed out", logger.Fields(
			logger.FieldInstance, name,
			"timeout_ms", timeout.Milliseconds(),
		))
	})
	return p
}

package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a fixed number of trial requests.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateTransition describes a single breaker state change.
type StateTransition struct {
	Name         string
	From         State
	To           State
	At           time.Time
	FailureRate  float64
	SlowCallRate float64
}

// BreakerMetrics is a read-only view of a breaker. Rates are percentages and
// are -1 until enough calls were recorded to evaluate them.
type BreakerMetrics struct {
	State        State
	FailureRate  float64
	SlowCallRate float64
	Calls        int
	FailedCalls  int
	SlowCalls    int
}

// Permit is handed out by Acquire and must be passed back to exactly one of
// Record or Release.
type Permit struct {
	epoch uint64
}

// CircuitBreaker implements a count-based sliding-window circuit breaker.
//
// States:
//   - Closed: calls pass; outcomes feed the sliding window
//   - Open: calls fail fast until WaitDurationInOpenState elapses
//   - Half-Open: PermittedNumberOfCallsInHalfOpenState trial calls decide
//     whether to close or re-open
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     State
	epoch     uint64
	openedAt  time.Time
	window    outcomeWindow
	trial     outcomeWindow
	issued    int
	failRate  float64
	slowRate  float64
	listeners []func(StateTransition)
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	config.ApplyDefaults()
	return &CircuitBreaker{
		name:     name,
		config:   config,
		now:      time.Now,
		state:    StateClosed,
		window:   newOutcomeWindow(config.SlidingWindowSize),
		trial:    newOutcomeWindow(config.PermittedNumberOfCallsInHalfOpenState),
		failRate: -1,
		slowRate: -1,
	}
}

// Name returns the instance name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// OnStateChange registers fn to be called after every transition.
// Listeners run outside the breaker lock.
func (cb *CircuitBreaker) OnStateChange(fn func(StateTransition)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.listeners = append(cb.listeners, fn)
}

// Acquire asks for permission to run one call. It never blocks.
// Returns a *CircuitOpenError when the call is not permitted.
func (cb *CircuitBreaker) Acquire() (Permit, error) {
	cb.mu.Lock()
	var fired []StateTransition
	fired = cb.advance(fired)

	var err error
	switch cb.state {
	case StateOpen:
		err = &CircuitOpenError{Name: cb.name, State: StateOpen}
	case StateHalfOpen:
		if cb.issued >= cb.config.PermittedNumberOfCallsInHalfOpenState {
			err = &CircuitOpenError{Name: cb.name, State: StateHalfOpen}
		} else {
			cb.issued++
		}
	}
	p := Permit{epoch: cb.epoch}
	cb.mu.Unlock()

	cb.notify(fired)
	return p, err
}

// Record stores the outcome of a permitted call. A call is slow when its
// duration reaches SlowCallDurationThreshold. Outcomes of calls admitted
// before the latest transition are discarded.
func (cb *CircuitBreaker) Record(p Permit, duration time.Duration, err error) {
	failed := err != nil
	slow := duration >= cb.config.SlowCallDurationThreshold

	cb.mu.Lock()
	var fired []StateTransition
	if p.epoch == cb.epoch {
		switch cb.state {
		case StateClosed:
			cb.window.add(failed, slow)
			if cb.window.count >= cb.config.MinimumNumberOfCalls {
				cb.failRate, cb.slowRate = cb.window.rates()
				if cb.exceeded(cb.failRate, cb.slowRate) {
					fired = append(fired, cb.toState(StateOpen))
				}
			}
		case StateHalfOpen:
			cb.trial.add(failed, slow)
			if cb.trial.count >= cb.config.PermittedNumberOfCallsInHalfOpenState {
				cb.failRate, cb.slowRate = cb.trial.rates()
				if cb.exceeded(cb.failRate, cb.slowRate) {
					fired = append(fired, cb.toState(StateOpen))
				} else {
					fired = append(fired, cb.toState(StateClosed))
				}
			}
		}
	}
	cb.mu.Unlock()

	cb.notify(fired)
}

// Release returns a permit without recording an outcome, e.g. when a later
// policy rejected the call or the caller gave up.
func (cb *CircuitBreaker) Release(p Permit) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if p.epoch == cb.epoch && cb.state == StateHalfOpen && cb.issued > 0 {
		cb.issued--
	}
}

// Execute runs fn through the circuit breaker.
// Returns a *CircuitOpenError if the circuit does not permit the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	p, err := cb.Acquire()
	if err != nil {
		return err
	}
	start := cb.now()
	err = fn()
	cb.Record(p, cb.now().Sub(start), err)
	return err
}

// State returns the current state. An open breaker whose wait has elapsed
// reports (and moves to) half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	fired := cb.advance(nil)
	s := cb.state
	cb.mu.Unlock()
	cb.notify(fired)
	return s
}

// Metrics returns a snapshot of the breaker.
func (cb *CircuitBreaker) Metrics() BreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	w := cb.window
	if cb.state == StateHalfOpen {
		w = cb.trial
	}
	return BreakerMetrics{
		State:        cb.state,
		FailureRate:  cb.failRate,
		SlowCallRate: cb.slowRate,
		Calls:        w.count,
		FailedCalls:  w.failures,
		SlowCalls:    w.slow,
	}
}

// Reset forces the breaker back to the closed state with an empty window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	var fired []StateTransition
	if cb.state != StateClosed {
		fired = append(fired, cb.toState(StateClosed))
	} else {
		cb.window.reset()
		cb.failRate, cb.slowRate = -1, -1
	}
	cb.mu.Unlock()
	cb.notify(fired)
}

// advance moves an expired open breaker to half-open. Caller holds mu.
func (cb *CircuitBreaker) advance(fired []StateTransition) []StateTransition {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.WaitDurationInOpenState {
		fired = append(fired, cb.toState(StateHalfOpen))
	}
	return fired
}

func (cb *CircuitBreaker) exceeded(failRate, slowRate float64) bool {
	if failRate >= cb.config.FailureRateThreshold {
		return true
	}
	return cb.config.SlowCallRateThreshold < 100 && slowRate >= cb.config.SlowCallRateThreshold
}

// toState performs a transition. Caller holds mu.
func (cb *CircuitBreaker) toState(to State) StateTransition {
	t := StateTransition{
		Name:         cb.name,
		From:         cb.state,
		To:           to,
		At:           cb.now(),
		FailureRate:  cb.failRate,
		SlowCallRate: cb.slowRate,
	}

	cb.state = to
	cb.epoch++
	cb.issued = 0
	cb.trial.reset()

	switch to {
	case StateOpen:
		cb.openedAt = t.At
	case StateClosed:
		cb.window.reset()
		cb.failRate, cb.slowRate = -1, -1
	}
	return t
}

func (cb *CircuitBreaker) notify(fired []StateTransition) {
	if len(fired) == 0 {
		return
	}
	cb.mu.Lock()
	listeners := append([]func(StateTransition){}, cb.listeners...)
	cb.mu.Unlock()
	for _, t := range fired {
		for _, fn := range listeners {
			fn(t)
		}
	}
}

// outcomeWindow is a ring buffer of the last N outcomes with running totals.
type outcomeWindow struct {
	failed   []bool
	slowBits []bool
	head     int
	count    int
	failures int
	slow     int
}

func newOutcomeWindow(size int) outcomeWindow {
	if size <= 0 {
		size = 1
	}
	return outcomeWindow{
		failed:   make([]bool, size),
		slowBits: make([]bool, size),
	}
}

func (w *outcomeWindow) add(failed, slow bool) {
	if w.count == len(w.failed) {
		if w.failed[w.head] {
			w.failures--
		}
		if w.slowBits[w.head] {
			w.slow--
		}
	} else {
		w.count++
	}
	w.failed[w.head] = failed
	w.slowBits[w.head] = slow
	if failed {
		w.failures++
	}
	if slow {
		w.slow++
	}
	w.head = (w.head + 1) % len(w.failed)
}

func (w *outcomeWindow) rates() (failRate, slowRate float64) {
	if w.count == 0 {
		return 0, 0
	}
	total := float64(w.count)
	return float64(w.failures) / total * 100, float64(w.slow) / total * 100
}

func (w *outcomeWindow) reset() {
	for i := range w.failed {
		w.failed[i] = false
		w.slowBits[i] = false
	}
	w.head, w.count, w.failures, w.slow = 0, 0, 0, 0
}

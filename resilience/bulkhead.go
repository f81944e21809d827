package resilience

import (
	"context"
	"sync"
	"time"
)

// Bulkhead limits the number of concurrent calls to one dependency.
// It isolates a slow provider from the rest of the process.
type Bulkhead struct {
	name   string
	config BulkheadConfig
	sem    chan struct{}

	mu       sync.Mutex
	onReject []func(name string)
	onFinish []func(name string, available int)
}

// NewBulkhead creates a bulkhead with MaxConcurrentCalls free slots.
func NewBulkhead(name string, config BulkheadConfig) *Bulkhead {
	config.ApplyDefaults()
	return &Bulkhead{
		name:   name,
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrentCalls),
	}
}

// Name returns the instance name.
func (b *Bulkhead) Name() string { return b.name }

// OnReject registers fn to be called when a call is refused a slot.
func (b *Bulkhead) OnReject(fn func(name string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReject = append(b.onReject, fn)
}

// OnRelease registers fn to be called after a slot is returned.
func (b *Bulkhead) OnRelease(fn func(name string, available int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onFinish = append(b.onFinish, fn)
}

// Acquire takes a slot, waiting up to MaxWaitDuration. The returned release
// func must be called exactly once when the guarded call has finished; extra
// calls are no-ops.
// Returns a *BulkheadFullError when no slot frees up in time, or the context
// error if ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) (func(), error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(b.release) }, nil
}

// Execute runs fn while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// ExecuteWithResult runs a function that returns a value while holding a slot.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	if b.config.MaxWaitDuration <= 0 {
		b.rejected()
		return &BulkheadFullError{Name: b.name, MaxConcurrent: b.config.MaxConcurrentCalls}
	}

	timer := time.NewTimer(b.config.MaxWaitDuration)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		b.rejected()
		return &BulkheadFullError{
			Name:          b.name,
			MaxConcurrent: b.config.MaxConcurrentCalls,
			Waited:        b.config.MaxWaitDuration,
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) release() {
	<-b.sem
	b.mu.Lock()
	listeners := append([]func(string, int){}, b.onFinish...)
	b.mu.Unlock()
	available := b.Available()
	for _, fn := range listeners {
		fn(b.name, available)
	}
}

func (b *Bulkhead) rejected() {
	b.mu.Lock()
	listeners := append([]func(string){}, b.onReject...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(b.name)
	}
}

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrentCalls - len(b.sem)
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the configured slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrentCalls
}

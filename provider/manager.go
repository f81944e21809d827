package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/pspkit/logger"
)

// Manager holds the initialized providers in initialization order, together
// with the factories that build them and the Selector that chooses among
// them when no default is set.
type Manager[T Provider] struct {
	mu          sync.RWMutex
	registry    *Registry[T]
	selector    Selector[T]
	providers   map[string]T
	order       []string
	defaultName string
	log         *logger.Logger
}

// NewManager creates a Manager backed by the given registry and selector.
func NewManager[T Provider](registry *Registry[T], selector Selector[T]) *Manager[T] {
	return &Manager[T]{
		registry:  registry,
		selector:  selector,
		providers: make(map[string]T),
		log:       logger.Get("provider"),
	}
}

// Register adds a factory to the underlying registry.
func (m *Manager[T]) Register(name string, factory Factory[T]) {
	m.registry.RegisterFactory(name, factory)
	m.log.Debug("factory registered", logger.Fields("factory", name))
}

// Initialize creates the provider name with the factory registered as
// factory, runs Init when it implements Initializable, and stores it under
// name. The created provider must report name from Name.
func (m *Manager[T]) Initialize(ctx context.Context, name, factory string, cfg map[string]any) error {
	instance, err := m.registry.Create(factory, cfg)
	if err != nil {
		return fmt.Errorf("initialize provider %q: %w", name, err)
	}
	if got := instance.Name(); got != name {
		return fmt.Errorf("initialize provider %q: factory %q created a provider named %q", name, factory, got)
	}
	if init, ok := any(instance).(Initializable); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("init provider %q: %w", name, err)
		}
	}
	m.Add(name, instance)
	return nil
}

// Add stores an already constructed provider under name.
func (m *Manager[T]) Add(name string, instance T) {
	m.mu.Lock()
	if _, exists := m.providers[name]; !exists {
		m.order = append(m.order, name)
	}
	m.providers[name] = instance
	m.mu.Unlock()
	m.log.Info("provider initialized", logger.Fields(logger.FieldProvider, name))
}

// Get returns a provider chosen by the selector, or the default if set.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	m.mu.RLock()
	defaultName := m.defaultName
	providers := m.snapshotLocked()
	m.mu.RUnlock()

	if defaultName != "" {
		if p, ok := providers[defaultName]; ok {
			return p, nil
		}
		var zero T
		return zero, fmt.Errorf("default provider %q not found", defaultName)
	}
	return m.Select(ctx, providers)
}

// Select runs the selector over providers, which is usually a filtered
// subset of All.
func (m *Manager[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	return m.selector.Select(ctx, providers)
}

// GetByName returns a specific provider by name.
func (m *Manager[T]) GetByName(name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("provider %q not found", name)
}

// SetDefault sets the default provider by name.
func (m *Manager[T]) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("provider %q not initialized", name)
	}
	m.defaultName = name
	m.log.Info("default provider set", logger.Fields(logger.FieldProvider, name))
	return nil
}

// Default returns the default provider name, or "" when none is set.
func (m *Manager[T]) Default() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// Available returns the sorted names of all initialized providers.
func (m *Manager[T]) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.providers))
}

// All returns the initialized providers in initialization order.
func (m *Manager[T]) All() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.providers[name])
	}
	return out
}

// CloseAll calls Close on every provider implementing Closeable and returns
// the joined errors.
func (m *Manager[T]) CloseAll(ctx context.Context) error {
	var errs []error
	for _, p := range m.All() {
		c, ok := any(p).(Closeable)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			m.log.Error("provider close failed", logger.MergeWithError(
				logger.Fields(logger.FieldProvider, p.Name()), err))
			errs = append(errs, fmt.Errorf("close provider %q: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// snapshotLocked returns a copy of the providers map. Caller holds mu.
func (m *Manager[T]) snapshotLocked() map[string]T {
	return maps.Clone(m.providers)
}

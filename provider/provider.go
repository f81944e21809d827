package provider

import "context"

// Provider is implemented by every backend a Manager can hold, payment
// adapters included.
type Provider interface {
	// Name identifies the provider instance. It keys routing, metrics and
	// resilience policy names.
	Name() string
	// IsAvailable reports whether the provider should receive calls now.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider from the options map of one provider config
// entry.
type Factory[T Provider] func(cfg map[string]any) (T, error)

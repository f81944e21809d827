package provider

import (
	"context"
	"errors"
	"slices"
	"sort"
)

// ErrNoneAvailable is returned by selectors when no candidate is available.
var ErrNoneAvailable = errors.New("no available provider")

// Selector picks a provider from the available options.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// PrioritySelector returns the first available provider of Priority.
// Providers missing from Priority are never chosen.
type PrioritySelector[T Provider] struct {
	Priority []string
}

// Select implements Selector.
func (s *PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range s.Priority {
		if p, ok := providers[name]; ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, ErrNoneAvailable
}

// HealthCheckSelector returns the first provider reporting IsAvailable. It
// tries the names in Order first and then the remaining candidates sorted by
// name. Skipped is called for every unavailable provider passed over.
type HealthCheckSelector[T Provider] struct {
	Order   []string
	Skipped func(ctx context.Context, name string)
}

// Select implements Selector.
func (s *HealthCheckSelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range s.order(providers) {
		p := providers[name]
		if p.IsAvailable(ctx) {
			return p, nil
		}
		if s.Skipped != nil {
			s.Skipped(ctx, name)
		}
	}
	var zero T
	return zero, ErrNoneAvailable
}

func (s *HealthCheckSelector[T]) order(providers map[string]T) []string {
	names := make([]string, 0, len(providers))
	for _, name := range s.Order {
		if _, ok := providers[name]; ok && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	rest := make([]string, 0, len(providers)-len(names))
	for name := range providers {
		if !slices.Contains(names, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

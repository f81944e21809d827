package psp

import (
	"context"
	"fmt"
	"slices"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/provider"
)

// RoutingContext carries the request attributes a Router selects on.
type RoutingContext struct {
	TenantID          string
	Currency          string
	Region            string
	CustomerID        string
	PaymentMethodType PaymentMethodType
	Metadata          map[string]any
}

// CurrencySupporter is optionally implemented by adapters that only accept
// some currencies. Adapters without it are assumed to accept all.
type CurrencySupporter interface {
	SupportsCurrency(code string) bool
}

// Router picks an adapter for a request from those registered with a
// provider.Manager.
type Router struct {
	manager *provider.Manager[Adapter]
	log     *logger.Logger
}

// NewRouter creates a router over manager.
func NewRouter(manager *provider.Manager[Adapter]) *Router {
	return &Router{manager: manager, log: logger.Get("psp")}
}

// Select returns the adapter chosen by the manager's selector among those
// accepting rc.Currency. When the manager has a default provider that
// accepts the currency, it wins.
func (r *Router) Select(ctx context.Context, rc RoutingContext) (Adapter, error) {
	candidates := r.candidates(rc)
	if len(candidates) == 0 {
		return nil, errors.ServiceUnavailable("payment provider").
			WithDetail("currency", rc.Currency).
			WithDetail("reason", "no provider supports the currency")
	}
	if def := r.manager.Default(); def != "" {
		if a, ok := candidates[def]; ok {
			return a, nil
		}
	}
	a, err := r.manager.Select(ctx, candidates)
	if err != nil {
		return nil, errors.ServiceUnavailable("payment provider").WithCause(err)
	}
	return a, nil
}

// SelectWithFailover is Select that skips unavailable adapters, trying the
// default first and then the rest in registration order.
func (r *Router) SelectWithFailover(ctx context.Context, rc RoutingContext) (Adapter, error) {
	candidates := r.candidates(rc)
	order := make([]string, 0, len(candidates))
	if def := r.manager.Default(); def != "" {
		if _, ok := candidates[def]; ok {
			order = append(order, def)
		}
	}
	for _, a := range r.manager.All() {
		if _, ok := candidates[a.Name()]; ok && !slices.Contains(order, a.Name()) {
			order = append(order, a.Name())
		}
	}

	sel := &provider.HealthCheckSelector[Adapter]{
		Order: order,
		Skipped: func(ctx context.Context, name string) {
			r.log.WithContext(ctx).Warn("provider unavailable, failing over", logger.Fields(
				logger.FieldProvider, name,
			))
		},
	}
	a, err := sel.Select(ctx, candidates)
	if err != nil {
		return nil, errors.ServiceUnavailable("payment provider").
			WithDetail("currency", rc.Currency).
			WithDetail("reason", fmt.Sprintf("none of %d providers is available", len(order))).
			WithCause(err)
	}
	return a, nil
}

// Default returns the default provider name, or "" when none is set.
func (r *Router) Default() string { return r.manager.Default() }

// All returns every registered adapter in registration order.
func (r *Router) All() []Adapter { return r.manager.All() }

// ByName returns the adapter registered under name.
func (r *Router) ByName(name string) (Adapter, error) {
	a, err := r.manager.GetByName(name)
	if err != nil {
		return nil, errors.NotFound("payment provider", name).WithCause(err)
	}
	return a, nil
}

// ByCurrency returns the adapters accepting currency, in registration order.
func (r *Router) ByCurrency(currency string) []Adapter {
	var out []Adapter
	for _, a := range r.manager.All() {
		if supportsCurrency(a, currency) {
			out = append(out, a)
		}
	}
	return out
}

// HealthStatus reports IsAvailable for every registered adapter.
func (r *Router) HealthStatus(ctx context.Context) map[string]bool {
	out := make(map[string]bool)
	for _, a := range r.manager.All() {
		out[a.Name()] = a.IsAvailable(ctx)
	}
	return out
}

func (r *Router) candidates(rc RoutingContext) map[string]Adapter {
	out := make(map[string]Adapter)
	for _, a := range r.manager.All() {
		if rc.Currency == "" || supportsCurrency(a, rc.Currency) {
			out[a.Name()] = a
		}
	}
	return out
}

func supportsCurrency(a Adapter, currency string) bool {
	cs, ok := a.(CurrencySupporter)
	return !ok || cs.SupportsCurrency(currency)
}

package main

import (
	"context"
	"fmt"
	"maps"

	"github.com/kbukum/pspkit/config"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/provider"
	"github.com/kbukum/pspkit/psp"
	"github.com/kbukum/pspkit/psp/rest"
	"github.com/kbukum/pspkit/psp/sandbox"
	"github.com/kbukum/pspkit/resilience"
)

// factories maps psp.providers[].type to a constructor.
var factories = map[string]provider.Factory[psp.Adapter]{
	"sandbox": sandbox.Factory,
}

// pspStack is the payment layer built from config.
type pspStack struct {
	manager  *provider.Manager[psp.Adapter]
	router   *psp.Router
	registry *resilience.Registry
	handler  *rest.Handler
}

// newPSP creates every declared provider, the resilience executor shared by
// all of them and the REST handler.
func newPSP(ctx context.Context, cfg config.PSPConfig, sink resilience.MetricsSink, log *logger.Logger, opts ...rest.Option) (*pspStack, error) {
	names := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		names = append(names, p.Name)
	}
	manager := provider.NewManager(provider.NewRegistry[psp.Adapter](), &provider.PrioritySelector[psp.Adapter]{Priority: names})
	for typ, f := range factories {
		manager.Register(typ, f)
	}

	for _, p := range cfg.Providers {
		options := maps.Clone(p.Options)
		if options == nil {
			options = make(map[string]any)
		}
		options["name"] = p.Name
		if err := manager.Initialize(ctx, p.Name, p.Type, options); err != nil {
			return nil, err
		}
	}
	if err := manager.SetDefault(cfg.Provider); err != nil {
		return nil, fmt.Errorf("default provider: %w", err)
	}

	policies := resilience.NewRegistry(cfg.Resilience, log)
	exec := resilience.NewExecutor(policies, sink)
	router := psp.NewRouter(manager)

	validator := psp.NewPaymentValidator(cfg.SupportedCurrencies)
	opts = append(opts, rest.WithServiceOptions(psp.WithValidator(validator)))

	return &pspStack{
		manager:  manager,
		router:   router,
		registry: policies,
		handler:  rest.New(router, exec, opts...),
	}, nil
}

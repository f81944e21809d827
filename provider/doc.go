// Package provider holds the generic machinery pspd uses for payment
// backends: factories keyed by provider type, a Manager of named instances,
// selectors that choose among them, and middlewares for single
// request/response calls.
//
// Providers are built from config entries. Manager.Initialize looks up the
// factory for the entry's type, checks the created provider carries the
// configured name, runs Init for Initializable providers, and stores it.
// Closeable providers are closed by Manager.CloseAll on shutdown.
//
//	mgr := provider.NewManager(provider.NewRegistry[psp.Adapter](),
//	    &provider.PrioritySelector[psp.Adapter]{Priority: []string{"sandbox-eu", "sandbox-us"}})
//	mgr.Register("sandbox", sandbox.Factory)
//	err := mgr.Initialize(ctx, "sandbox-eu", "sandbox", map[string]any{"name": "sandbox-eu"})
//
// HealthCheckSelector implements failover: it walks an explicit order,
// reports every unavailable provider it passes over, and returns the first
// available one.
//
// Middlewares wrap a RequestResponse and compose with Chain, outermost
// first:
//
//	op := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithTracing[In, Out]("psp"),
//	    provider.WithMetrics[In, Out](metrics, "provider_specific"),
//	)(provider.Func[In, Out]{ProviderName: "sandbox", Fn: svc.ExecuteOperation})
package provider

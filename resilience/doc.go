// Package resilience provides the fault-tolerance policies applied to calls
// against payment service providers.
//
// This package includes:
//   - CircuitBreaker: count-based sliding window, fails fast while open
//   - RateLimiter: fixed-period token bucket
//   - Bulkhead: caps concurrent calls per instance
//   - Retrier: attempt budget with fixed or exponential backoff
//   - TimeLimiter: per-attempt timeout with optional cancellation
//
// A Registry owns one instance of each policy per instance name and an
// Executor composes them around a unit of work:
//
//	reg := resilience.NewRegistry(resilience.DefaultConfig(), log)
//	exec := resilience.NewExecutor(reg, sink)
//
//	payment, err := resilience.Execute(ctx, exec, "stripe", "payment",
//	    func(ctx context.Context) (*psp.PaymentResponse, error) {
//	        return client.CreatePayment(ctx, req)
//	    })
//	if errors.Is(err, resilience.ErrCircuitOpen) {
//	    // provider is failing; fail fast
//	}
package resilience

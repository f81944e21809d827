package psp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/provider"
	"github.com/kbukum/pspkit/resilience"
)

// HealthIndicator reports the health of one adapter together with the
// circuit breakers of the policy instances its calls ran under.
//
// The adapter is up when it is available and every breaker is closed,
// degraded when it is available but some breaker is open or half-open, and
// down when it is unavailable. Adapters implementing provider.HealthChecker
// may lower the status further and add their own details.
type HealthIndicator struct {
	adapter  Adapter
	registry *resilience.Registry
}

// NewHealthIndicator creates a health indicator for adapter. Breakers are
// read from registry, which may be nil.
func NewHealthIndicator(adapter Adapter, registry *resilience.Registry) *HealthIndicator {
	return &HealthIndicator{adapter: adapter, registry: registry}
}

// CheckHealth implements observability.HealthChecker.
func (h *HealthIndicator) CheckHealth(ctx context.Context) observability.Health {
	name := h.adapter.Name()
	available := h.adapter.IsAvailable(ctx)
	details := map[string]string{
		"provider":  name,
		"available": strconv.FormatBool(available),
	}

	allClosed := true
	if h.registry != nil {
		for _, s := range h.registry.ProviderSnapshots(name) {
			prefix := "circuit_breaker." + s.Name + "."
			details[prefix+"state"] = s.State
			details[prefix+"failure_rate"] = formatRate(s.FailureRate)
			details[prefix+"slow_call_rate"] = formatRate(s.SlowCallRate)
			details[prefix+"calls"] = strconv.Itoa(s.Calls)
			details[prefix+"failed_calls"] = strconv.Itoa(s.FailedCalls)
			if s.State != resilience.StateClosed.String() {
				allClosed = false
			}
		}
	}

	health := observability.Health{Name: "psp." + name, Details: details}
	switch {
	case available && allClosed:
		health.Status = observability.HealthStatusUp
	case available:
		health.Status = observability.HealthStatusDegraded
		health.Message = "circuit breakers are not all closed"
	default:
		health.Status = observability.HealthStatusDown
		health.Message = "payment provider is not available"
	}

	if hc, ok := h.adapter.(provider.HealthChecker); ok && available {
		applyProviderHealth(&health, hc.Health(ctx))
	}
	return health
}

// formatRate renders a breaker rate. Negative rates mean the window has not
// seen enough calls yet.
func formatRate(rate float64) string {
	if rate < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", rate)
}

// applyProviderHealth merges an adapter's own report into health. It never
// raises the status.
func applyProviderHealth(health *observability.Health, ph provider.HealthStatus) {
	for k, v := range ph.Details {
		health.Details["provider."+k] = fmt.Sprint(v)
	}
	var status observability.HealthStatus
	switch ph.Status {
	case provider.StatusHealthy:
		return
	case provider.StatusDegraded:
		status = observability.HealthStatusDegraded
	default:
		status = observability.HealthStatusDown
	}
	if health.Status == observability.HealthStatusDown || health.Status == status {
		return
	}
	health.Status = status
	health.Message = ph.Message
}

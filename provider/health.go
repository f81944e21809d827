package provider

import "context"

// Status is a provider's own view of its health.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnavailable
)

var statusNames = [...]string{"healthy", "degraded", "unavailable"}

// String returns the status name.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// HealthStatus is the report returned by HealthChecker.
type HealthStatus struct {
	Status  Status
	Message string
	// Details are surfaced in health endpoints under "provider.<key>".
	Details map[string]any
}

// HealthChecker is implemented by providers that can say more about their
// health than IsAvailable. A report can only lower the status derived from
// availability and circuit breakers, never raise it.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

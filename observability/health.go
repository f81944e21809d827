package observability

import (
	"context"
	"net/http"
)

// HealthStatus is the state of one component, usually a payment provider,
// or of the whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HTTPStatus is the code health endpoints answer with: 503 when down, 200
// otherwise. Degraded providers still take traffic.
func (s HealthStatus) HTTPStatus() int {
	if s == HealthStatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Health is the report of one component. Provider reports are named
// "psp.{provider}" and carry circuit breaker details.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth aggregates component reports. Its status is the worst one
// seen.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker reports the health of one component.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates an empty report with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent appends ch and lowers the service status to ch's if worse.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	if ch.Status.severity() > sh.Status.severity() {
		sh.Status = ch.Status
	}
}

// Down returns the names of the components reporting down.
func (sh *ServiceHealth) Down() []string {
	var names []string
	for _, ch := range sh.Components {
		if ch.Status == HealthStatusDown {
			names = append(names, ch.Name)
		}
	}
	return names
}

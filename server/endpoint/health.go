package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/observability"
)

// HealthChecker returns the reports of every registered component.
type HealthChecker func(ctx context.Context) []observability.Health

// Checkers combines health checkers into one HealthChecker.
func Checkers(checkers ...observability.HealthChecker) HealthChecker {
	return func(ctx context.Context) []observability.Health {
		out := make([]observability.Health, 0, len(checkers))
		for _, c := range checkers {
			out = append(out, c.CheckHealth(ctx))
		}
		return out
	}
}

func aggregate(ctx context.Context, serviceName, version string, checker HealthChecker) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(serviceName, version)
	if checker != nil {
		for _, ch := range checker(ctx) {
			sh.AddComponent(ch)
		}
	}
	return sh
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Health reports every component. Any component down answers 503.
func Health(serviceName, version string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := aggregate(c.Request.Context(), serviceName, version, checker)
		c.JSON(sh.Status.HTTPStatus(), gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"timestamp":  now(),
			"components": sh.Components,
		})
	}
}

// Readiness answers 503 with the names of the components that are down.
// Degraded components stay ready.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := aggregate(c.Request.Context(), serviceName, "", checker)
		body := gin.H{"status": "ready", "service": serviceName, "timestamp": now()}
		if down := sh.Down(); len(down) > 0 {
			body["status"] = "not_ready"
			body["down"] = down
		}
		c.JSON(sh.Status.HTTPStatus(), body)
	}
}

// Liveness only confirms the process serves HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName, "timestamp": now()})
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/observability"
)

func newTestServer(components ...observability.Health) (*Server, *prometheus.Registry) {
	cfg := Config{}
	cfg.ApplyDefaults()
	reg := prometheus.NewRegistry()
	s := New(cfg, logger.NewDefault("test"))
	s.ApplyDefaults("pspd", "v1.2.3", func(context.Context) []observability.Health { return components }, reg)
	return s, reg
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		components []observability.Health
		wantStatus observability.HealthStatus
		wantCode   int
	}{
		{"no components", nil, observability.HealthStatusUp, http.StatusOK},
		{"degraded", []observability.Health{
			{Name: "psp.a", Status: observability.HealthStatusUp},
			{Name: "psp.b", Status: observability.HealthStatusDegraded},
		}, observability.HealthStatusDegraded, http.StatusOK},
		{"down", []observability.Health{
			{Name: "psp.a", Status: observability.HealthStatusDegraded},
			{Name: "psp.b", Status: observability.HealthStatusDown},
		}, observability.HealthStatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(tt.components...)
			rr := serve(s, "GET", "/health")
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var body struct {
				Status     observability.HealthStatus `json:"status"`
				Version    string                     `json:"version"`
				Components []observability.Health     `json:"components"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Status != tt.wantStatus || body.Version != "v1.2.3" || len(body.Components) != len(tt.components) {
				t.Errorf("unexpected body: %s", rr.Body.String())
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	s, _ := newTestServer(observability.Health{Name: "psp.a", Status: observability.HealthStatusDegraded})
	if rr := serve(s, "GET", "/ready"); rr.Code != http.StatusOK {
		t.Errorf("degraded components stay ready, got %d", rr.Code)
	}

	s, _ = newTestServer(
		observability.Health{Name: "psp.a", Status: observability.HealthStatusDown},
		observability.Health{Name: "psp.b", Status: observability.HealthStatusUp},
	)
	rr := serve(s, "GET", "/ready")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var body struct {
		Status string   `json:"status"`
		Down   []string `json:"down"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "not_ready" || len(body.Down) != 1 || body.Down[0] != "psp.a" {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, reg := newTestServer()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "psp_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	rr := serve(s, "GET", "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "psp_test_total 3") {
		t.Errorf("metric missing from exposition:\n%s", rr.Body.String())
	}
}

func TestMiddlewareWrapsRoutes(t *testing.T) {
	s, _ := newTestServer()
	var seen string
	s.GinEngine().GET("/api/psp/ping", func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	s.GinEngine().GET("/api/psp/boom", func(*gin.Context) { panic("boom") })

	rr := serve(s, "GET", "/api/psp/ping")
	id := rr.Header().Get("X-Request-Id")
	if id == "" || id != seen {
		t.Errorf("request ID not propagated: header %q, context %q", id, seen)
	}

	if rr := serve(s, "GET", "/api/psp/boom"); rr.Code != http.StatusInternalServerError {
		t.Errorf("expected recovered panic to answer 500, got %d", rr.Code)
	}
}

func TestTrackRoutes(t *testing.T) {
	s, _ := newTestServer()
	s.GinEngine().POST("/api/psp/payments", func(c *gin.Context) {})

	summary := logger.NewStartupSummary()
	s.TrackRoutes(summary)

	handlers := summary.Handlers()
	if len(handlers) != 6 {
		t.Fatalf("expected 6 routes, got %d: %+v", len(handlers), handlers)
	}
	if handlers[0].Path != "/api/psp/payments" {
		t.Errorf("API routes should sort first, got %s", handlers[0].Path)
	}
	if !strings.HasSuffix(handlers[len(handlers)-1].Handler, "(system)") {
		t.Errorf("system routes should be labeled, got %q", handlers[len(handlers)-1].Handler)
	}
	if infra := summary.Infrastructure(); len(infra) != 1 || infra[0].Status != "configured" {
		t.Errorf("unexpected infrastructure: %+v", infra)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"github.com/kbukum/pspkit/psp/rest.(*Handler).CreatePayment-fm", "Handler.CreatePayment"},
		{"github.com/kbukum/pspkit/server/endpoint.Health.func1", "health"},
		{"main.ping", "ping"},
	}
	for _, tt := range tests {
		if got := formatHandlerName(tt.in); got != tt.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize != "10MB" || len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.WriteTimeout != 2*time.Minute || cfg.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected timeouts: read %v write %v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}

	bad := cfg
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected port validation error")
	}
	bad = cfg
	bad.WriteTimeout = -time.Second
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "server.write_timeout") {
		t.Errorf("expected write_timeout validation error, got %v", err)
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		want int
		code apperrors.ErrorCode
	}{
		{apperrors.PaymentNotFound("sandbox", "pay_1"), http.StatusNotFound, apperrors.ErrCodePaymentNotFound},
		{fmt.Errorf("wrapped: %w", apperrors.RateLimited()), http.StatusTooManyRequests, apperrors.ErrCodeRateLimited},
		{fmt.Errorf("plain"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		req := httptest.NewRequest(http.MethodGet, "/api/psp/payments/pay_1", http.NoBody)
		c.Request = req.WithContext(logger.ContextWithRequestID(req.Context(), "req-9"))

		RespondWithError(c, tt.err)
		if rr.Code != tt.want {
			t.Errorf("RespondWithError(%v) = %d, want %d", tt.err, rr.Code, tt.want)
		}
		var body apperrors.ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body.Error.Code != tt.code || body.Error.RequestID != "req-9" {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	}
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		status   int
		wantBody string
	}{
		{http.StatusCreated, `{"data":{"id":"pay_1"}}`},
		{http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		Respond(c, tt.status, map[string]string{"id": "pay_1"})
		c.Writer.WriteHeaderNow()
		if rr.Code != tt.status || rr.Body.String() != tt.wantBody {
			t.Errorf("Respond(%d) = %d %q", tt.status, rr.Code, rr.Body.String())
		}
	}
}

package logger

import (
	"strings"
	"sync"
	"time"
)

// StartupSummary collects what a process wired up during startup so it can
// be logged once the server is listening.
type StartupSummary struct {
	mu             sync.Mutex
	startTime      time.Time
	apiPrefix      string
	infrastructure []InfraComponent
	providers      []ProviderComponent
	handlers       []HandlerComponent
}

// InfraComponent is an infrastructure dependency such as the HTTP server or
// a telemetry exporter.
type InfraComponent struct {
	Name    string
	Type    string // "server", "tracing", "metrics"
	Status  string // "active", "disabled", "error"
	Details string
}

// ProviderComponent is a registered payment provider.
type ProviderComponent struct {
	Name      string
	Default   bool
	Available bool
}

// HandlerComponent is an HTTP route.
type HandlerComponent struct {
	Method  string
	Path    string
	Handler string
}

// NewStartupSummary creates an empty summary stamped with the current time.
func NewStartupSummary() *StartupSummary {
	return &StartupSummary{startTime: time.Now()}
}

// SetAPIPrefix sets the API prefix (for example "/api/psp"). Routes under it
// are counted separately from system routes.
func (s *StartupSummary) SetAPIPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiPrefix = strings.TrimRight(prefix, "/")
}

// APIPrefix returns the configured API prefix.
func (s *StartupSummary) APIPrefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiPrefix
}

// StartTime returns when the summary was created.
func (s *StartupSummary) StartTime() time.Time { return s.startTime }

// RegisterInfrastructure records an infrastructure component.
func (s *StartupSummary) RegisterInfrastructure(name, componentType, status, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infrastructure = append(s.infrastructure, InfraComponent{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
	})
}

// RegisterProvider records a payment provider.
func (s *StartupSummary) RegisterProvider(name string, isDefault, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, ProviderComponent{Name: name, Default: isDefault, Available: available})
}

// RegisterHandler records an HTTP route.
func (s *StartupSummary) RegisterHandler(method, path, handler string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, HandlerComponent{Method: method, Path: path, Handler: handler})
}

// Infrastructure returns the recorded infrastructure components.
func (s *StartupSummary) Infrastructure() []InfraComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InfraComponent(nil), s.infrastructure...)
}

// Providers returns the recorded providers.
func (s *StartupSummary) Providers() []ProviderComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProviderComponent(nil), s.providers...)
}

// Handlers returns the recorded routes.
func (s *StartupSummary) Handlers() []HandlerComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HandlerComponent(nil), s.handlers...)
}

// Log writes the summary to log: one line per component and route, then a
// closing line with counts and the startup duration.
func (s *StartupSummary) Log(log *Logger) {
	infra, providers, handlers := s.Infrastructure(), s.Providers(), s.Handlers()
	prefix := s.APIPrefix()

	for _, c := range infra {
		log.Info("Infrastructure", Fields("name", c.Name, "type", c.Type, "status", c.Status, "details", c.Details))
	}
	for _, p := range providers {
		log.Info("Payment provider", Fields("provider", p.Name, "default", p.Default, "available", p.Available))
	}
	api := 0
	for _, h := range handlers {
		if prefix != "" && strings.HasPrefix(h.Path, prefix) {
			api++
		}
		log.Debug("Route", Fields("method", h.Method, "path", h.Path, "handler", h.Handler))
	}
	log.Info("Startup complete", Fields(
		"providers", len(providers),
		"api_routes", api,
		"routes", len(handlers),
		"startup_ms", time.Since(s.startTime).Milliseconds(),
	))
}

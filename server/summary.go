package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/pspkit/logger"
)

// System route paths registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":  true,
	"/alive":   true,
	"/ready":   true,
	"/info":    true,
	"/metrics": true,
}

// TrackRoutes records every registered Gin route, and the server itself, on
// summary. Call it after all routes are registered. System routes are
// labeled.
func (s *Server) TrackRoutes(summary *logger.StartupSummary) {
	name, componentType, status, details := s.InfrastructureInfo()
	summary.RegisterInfrastructure(name, componentType, status, details)

	routes := s.engine.Routes()

	// API routes first (by path), then system routes.
	sort.Slice(routes, func(i, j int) bool {
		iSys := systemPaths[routes[i].Path]
		jSys := systemPaths[routes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})

	for _, r := range routes {
		handler := formatHandlerName(r.Handler)

		if systemPaths[r.Path] {
			handler += " (system)"
		}
		summary.RegisterHandler(r.Method, r.Path, handler)
	}
}

// formatHandlerName extracts a clean handler name from Gin's full handler path,
// so "github.com/kbukum/pspkit/psp/rest.(*Handler).CreatePayment-fm" becomes
// "Handler.CreatePayment".
func formatHandlerName(fullPath string) string {
	// Remove -fm suffix Gin adds to method values
	name := strings.TrimSuffix(fullPath, "-fm")

	// Get the last segment after /
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	// "(*Handler).List" becomes "Handler.List".
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Closures such as "endpoint.Health.func1" keep the enclosing name.
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				name = strings.ToLower(parts[i])
				break
			}
		}
	}

	// Drop a lowercase package prefix.
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		hasUpper := false
		for _, c := range parts[0] {
			if c >= 'A' && c <= 'Z' {
				hasUpper = true
				break
			}
		}
		if !hasUpper && len(parts[1]) > 0 {
			name = parts[1]
		}
	}

	return name
}

// methodOrder returns a sort key for HTTP methods (GET first, DELETE last).
func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}

// InfrastructureInfo returns a summary description for this server.
func (s *Server) InfrastructureInfo() (name, componentType, status, details string) {
	status = "configured"
	if s.listener != nil {
		status = "active"
	}
	return "HTTP Server", "server", status, fmt.Sprintf("%s (h2c)", s.Addr())
}

// Package server provides the HTTP server of pspkit services: Gin served
// over HTTP/1.1 and h2c, with lifecycle methods, default operational
// endpoints and a net/http middleware stack that wraps every route.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the request context
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//   - RateLimit: per-client token buckets built on resilience.RateLimiter
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /alive: Kubernetes liveness check
//   - /ready: Kubernetes readiness check
//   - /info: version, runtime and uptime
//   - /metrics: Prometheus exposition
package server

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/pspkit/resilience"
)

// idleLimiter is how long a per-key limiter may go unused before it is dropped.
const idleLimiter = 10 * time.Minute

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Limiter sizes the bucket each key gets. TimeoutDuration is how long a
	// request may wait for a token before it is answered 429.
	Limiter resilience.RateLimiterConfig
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*http.Request) string
}

// RateLimit returns middleware that gives every key its own token bucket.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	cfg.Limiter.ApplyDefaults()
	limiters := &keyedLimiters{config: cfg.Limiter, entries: make(map[string]*keyedLimiter)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiters.get(cfg.KeyFunc(r)).Acquire(r.Context()); err != nil {
				retry := int(cfg.Limiter.LimitRefreshPeriod.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type keyedLimiter struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

type keyedLimiters struct {
	config resilience.RateLimiterConfig

	mu        sync.Mutex
	entries   map[string]*keyedLimiter
	lastPrune time.Time
}

func (k *keyedLimiters) get(key string) *resilience.RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	if now.Sub(k.lastPrune) > idleLimiter {
		for key, e := range k.entries {
			if now.Sub(e.lastSeen) > idleLimiter {
				delete(k.entries, key)
			}
		}
		k.lastPrune = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &keyedLimiter{limiter: resilience.NewRateLimiter("http-"+key, k.config)}
		k.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

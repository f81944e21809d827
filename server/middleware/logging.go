package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/pspkit/logger"
)

// HeaderProvider carries the payment provider that served a request. The
// access log reports it when the handler set it.
const HeaderProvider = "X-PSP-Provider"

// slowRequest marks requests worth flagging in the access log.
const slowRequest = 500 * time.Millisecond

var quietPaths = []string{"/health", "/alive", "/ready", "/metrics"}

// RequestLogger logs every request except health and metrics scrapes, at a
// level chosen by the status code. It must run after RequestID.
func RequestLogger(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			status := sw.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", sw.bytes,
				logger.FieldDuration, duration.Milliseconds(),
			)
			if p := sw.Header().Get(HeaderProvider); p != "" {
				fields[logger.FieldProvider] = p
			}
			if duration > slowRequest {
				fields["slow"] = true
			}

			l := log.WithContext(r.Context())
			switch {
			case status >= http.StatusInternalServerError:
				l.Error("request completed", fields)
			case status >= http.StatusBadRequest:
				l.Warn("request completed", fields)
			default:
				l.Debug("request completed", fields)
			}
		})
	}
}

func isHealthEndpoint(path string) bool {
	return slices.Contains(quietPaths, strings.TrimPrefix(path, "/api"))
}

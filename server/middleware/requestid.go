package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/pspkit/logger"
)

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-Id"

// RequestID returns middleware that ensures every request carries an
// X-Request-Id. An incoming ID is kept; otherwise a UUID is generated. The ID
// is echoed on the response and stored on the request context, where
// logger.WithContext and the PSP service pick it up.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}

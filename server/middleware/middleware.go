package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler. The server applies its chain to the whole
// mux; GinWrap applies one to a Gin route group.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so the first one sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for _, mw := range slices.Backward(middlewares) {
			final = mw(final)
		}
		return final
	}
}

// GinWrap runs mw inside a Gin chain. The request mw passes on replaces
// c.Request. If mw answers without calling next, the chain is aborted.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}

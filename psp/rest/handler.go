// Package rest exposes psp.Service over HTTP with Gin.
//
// Routes are registered on a caller-supplied group, normally the configured
// psp base path:
//
//	POST   /payments                      GET /payments/:id
//	POST   /payments/:id/confirm          POST /payments/:id/capture
//	POST   /payments/:id/cancel
//	POST   /refunds                       GET /refunds/:id
//	POST   /subscriptions                 GET /subscriptions/:id
//	POST   /subscriptions/:id/cancel
//	POST   /checkout/sessions             GET /checkout/sessions/:id
//	POST   /checkout/payment-intents      GET|PATCH /checkout/payment-intents/:id
//	POST   /customers                     GET|PATCH|DELETE /customers/:id
//	POST   /customers/:id/payment-methods GET /customers/:id/payment-methods
//	DELETE /customers/:id/payment-methods/:pmId
//	GET    /operations                    POST /operations/:name
//	GET    /providers                     GET /health
//
// A request names its provider with the X-PSP-Provider header or the
// provider query parameter. Without one, creates that carry an amount are
// routed by currency and everything else goes to the default provider,
// failing over to the next available one.
package rest

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/psp"
	"github.com/kbukum/pspkit/resilience"
	"github.com/kbukum/pspkit/server"
	"github.com/kbukum/pspkit/server/middleware"
)

// HeaderProvider names the provider a request is sent to.
const HeaderProvider = middleware.HeaderProvider

// Handler serves the PSP REST API.
type Handler struct {
	router   *psp.Router
	services map[string]*psp.Service
	health   []*psp.HealthIndicator
	metrics  *observability.Metrics
	log      *logger.Logger
}

// Option configures a Handler.
type Option func(*handlerOptions)

type handlerOptions struct {
	service []psp.ServiceOption
	metrics *observability.Metrics
}

// WithServiceOptions applies opts to every psp.Service the handler builds.
func WithServiceOptions(opts ...psp.ServiceOption) Option {
	return func(o *handlerOptions) { o.service = append(o.service, opts...) }
}

// WithMetrics records provider-specific operations on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *handlerOptions) { o.metrics = m }
}

// New creates a handler for every adapter registered with router. Each
// adapter gets its own psp.Service sharing exec.
func New(router *psp.Router, exec *resilience.Executor, opts ...Option) *Handler {
	var o handlerOptions
	for _, opt := range opts {
		opt(&o)
	}
	h := &Handler{
		router:   router,
		services: make(map[string]*psp.Service),
		metrics:  o.metrics,
		log:      logger.Get("psp").WithComponent("rest"),
	}
	for _, a := range router.All() {
		h.services[a.Name()] = psp.NewService(a, exec, o.service...)
		h.health = append(h.health, psp.NewHealthIndicator(a, exec.Registry()))
	}
	return h
}

// Register mounts the routes on rg.
func (h *Handler) Register(rg gin.IRouter) {
	payments := rg.Group("/payments")
	payments.POST("", h.CreatePayment)
	payments.GET("/:id", h.GetPayment)
	payments.POST("/:id/confirm", h.ConfirmPayment)
	payments.POST("/:id/capture", h.CapturePayment)
	payments.POST("/:id/cancel", h.CancelPayment)

	refunds := rg.Group("/refunds")
	refunds.POST("", h.CreateRefund)
	refunds.GET("/:id", h.GetRefund)

	subscriptions := rg.Group("/subscriptions")
	subscriptions.POST("", h.CreateSubscription)
	subscriptions.GET("/:id", h.GetSubscription)
	subscriptions.POST("/:id/cancel", h.CancelSubscription)

	checkout := rg.Group("/checkout")
	checkout.POST("/sessions", h.CreateCheckoutSession)
	checkout.GET("/sessions/:id", h.GetCheckoutSession)
	checkout.POST("/payment-intents", h.CreatePaymentIntent)
	checkout.GET("/payment-intents/:id", h.GetPaymentIntent)
	checkout.PATCH("/payment-intents/:id", h.UpdatePaymentIntent)

	customers := rg.Group("/customers")
	customers.POST("", h.CreateCustomer)
	customers.GET("/:id", h.GetCustomer)
	customers.PATCH("/:id", h.UpdateCustomer)
	customers.DELETE("/:id", h.DeleteCustomer)
	customers.POST("/:id/payment-methods", h.AttachPaymentMethod)
	customers.GET("/:id/payment-methods", h.ListPaymentMethods)
	customers.DELETE("/:id/payment-methods/:pmId", h.DetachPaymentMethod)

	operations := rg.Group("/operations")
	operations.GET("", h.ListOperations)
	operations.POST("/:name", h.ExecuteOperation)

	rg.GET("/providers", h.ListProviders)
	rg.GET("/health", h.Health)
}

// HealthCheckers returns one checker per adapter for the server's /health.
func (h *Handler) HealthCheckers() []observability.HealthChecker {
	out := make([]observability.HealthChecker, len(h.health))
	for i, hi := range h.health {
		out[i] = hi
	}
	return out
}

// service resolves the psp.Service for a request. currency, when set,
// restricts routing to providers that accept it.
func (h *Handler) service(c *gin.Context, currency string) (*psp.Service, error) {
	name := c.GetHeader(HeaderProvider)
	if name == "" {
		name = c.Query("provider")
	}

	var (
		a   psp.Adapter
		err error
	)
	if name != "" {
		a, err = h.router.ByName(name)
	} else {
		a, err = h.router.SelectWithFailover(c.Request.Context(), psp.RoutingContext{Currency: currency})
	}
	if err != nil {
		return nil, err
	}
	svc, ok := h.services[a.Name()]
	if !ok {
		return nil, errors.NotFound("payment provider", a.Name())
	}
	return svc, nil
}

// bind decodes the JSON body into dst. An empty body is accepted when
// optional is set.
func bind(c *gin.Context, dst any, optional bool) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && stderrors.Is(err, io.EOF)) {
		return nil
	}
	return errors.Validation("invalid request body: " + err.Error())
}

// call resolves the service, runs fn and writes the result with status.
func call[T any](h *Handler, c *gin.Context, currency string, status int, fn func(context.Context, *psp.Service) (T, error)) {
	svc, err := h.service(c, currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header(HeaderProvider, svc.Provider())
	out, err := fn(c.Request.Context(), svc)
	if err != nil {
		h.fail(c, err)
		return
	}
	server.Respond(c, status, out)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok && appErr.HTTPStatus < http.StatusInternalServerError {
		h.log.WithContext(c.Request.Context()).Debug("request rejected", logger.Fields(
			"path", c.FullPath(),
			"code", appErr.Code,
		))
	}
	server.RespondWithError(c, err)
}

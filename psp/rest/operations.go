package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/provider"
	"github.com/kbukum/pspkit/psp"
	"github.com/kbukum/pspkit/server"
)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name       string   `json:"name"`
	Default    bool     `json:"default"`
	Available  bool     `json:"available"`
	Operations []string `json:"operations,omitempty"`
}

// ListOperations handles GET /operations.
func (h *Handler) ListOperations(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(_ context.Context, svc *psp.Service) ([]string, error) {
		ops := svc.SupportedOperations()
		if ops == nil {
			ops = []string{}
		}
		return ops, nil
	})
}

// ExecuteOperation handles POST /operations/:name. The optional body carries
// parameters and metadata.
func (h *Handler) ExecuteOperation(c *gin.Context) {
	var req psp.ProviderOperationRequest
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	req.OperationName = c.Param("name")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.ProviderOperationResponse, error) {
		return h.operation(svc).Execute(ctx, req)
	})
}

type operationRR = provider.RequestResponse[psp.ProviderOperationRequest, *psp.ProviderOperationResponse]

// operation wraps svc.ExecuteOperation with logging, tracing and, when
// configured, request metrics.
func (h *Handler) operation(svc *psp.Service) operationRR {
	mws := []provider.Middleware[psp.ProviderOperationRequest, *psp.ProviderOperationResponse]{
		provider.WithLogging[psp.ProviderOperationRequest, *psp.ProviderOperationResponse](h.log),
		provider.WithTracing[psp.ProviderOperationRequest, *psp.ProviderOperationResponse]("psp"),
	}
	if h.metrics != nil {
		mws = append(mws, provider.WithMetrics[psp.ProviderOperationRequest, *psp.ProviderOperationResponse](h.metrics, psp.OperationProviderSpecific))
	}
	return provider.Chain(mws...)(provider.Func[psp.ProviderOperationRequest, *psp.ProviderOperationResponse]{
		ProviderName: svc.Provider(),
		Fn:           svc.ExecuteOperation,
	})
}

// ListProviders handles GET /providers.
func (h *Handler) ListProviders(c *gin.Context) {
	ctx := c.Request.Context()
	def := h.router.Default()
	out := make([]ProviderInfo, 0, len(h.services))
	for _, a := range h.router.All() {
		info := ProviderInfo{
			Name:      a.Name(),
			Default:   a.Name() == def,
			Available: a.IsAvailable(ctx),
		}
		if svc, ok := h.services[a.Name()]; ok {
			info.Operations = svc.SupportedOperations()
		}
		out = append(out, info)
	}
	server.RespondOK(c, out)
}

// Health handles GET /health: every provider with its circuit breakers.
// Any provider down answers 503.
func (h *Handler) Health(c *gin.Context) {
	sh := observability.NewServiceHealth("psp", "")
	for _, hi := range h.health {
		sh.AddComponent(hi.CheckHealth(c.Request.Context()))
	}
	c.JSON(sh.Status.HTTPStatus(), sh)
}

package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/psp"
)

// CreateSubscription handles POST /subscriptions.
func (h *Handler) CreateSubscription(c *gin.Context) {
	var req psp.CreateSubscriptionRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	call(h, c, "", http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.SubscriptionResponse, error) {
		return svc.CreateSubscription(ctx, req)
	})
}

// GetSubscription handles GET /subscriptions/:id.
func (h *Handler) GetSubscription(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.SubscriptionResponse, error) {
		return svc.GetSubscription(ctx, c.Param("id"))
	})
}

// CancelSubscription handles POST /subscriptions/:id/cancel. Without a body
// the subscription is canceled at the end of the current period.
func (h *Handler) CancelSubscription(c *gin.Context) {
	var req psp.CancelSubscriptionRequest
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	req.SubscriptionID = c.Param("id")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.SubscriptionResponse, error) {
		return svc.CancelSubscription(ctx, req)
	})
}

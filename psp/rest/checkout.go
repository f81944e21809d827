package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/psp"
)

// CreateCheckoutSession handles POST /checkout/sessions.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req psp.CreateCheckoutSessionRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	var currency string
	if req.Amount != nil {
		currency = req.Amount.Currency
	}
	call(h, c, currency, http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.CheckoutSessionResponse, error) {
		return svc.CreateCheckoutSession(ctx, req)
	})
}

// GetCheckoutSession handles GET /checkout/sessions/:id.
func (h *Handler) GetCheckoutSession(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.CheckoutSessionResponse, error) {
		return svc.GetCheckoutSession(ctx, c.Param("id"))
	})
}

// CreatePaymentIntent handles POST /checkout/payment-intents.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req psp.CreatePaymentIntentRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	call(h, c, req.Amount.Currency, http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.PaymentIntentResponse, error) {
		return svc.CreatePaymentIntent(ctx, req)
	})
}

// GetPaymentIntent handles GET /checkout/payment-intents/:id.
func (h *Handler) GetPaymentIntent(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentIntentResponse, error) {
		return svc.GetPaymentIntent(ctx, c.Param("id"))
	})
}

// UpdatePaymentIntent handles PATCH /checkout/payment-intents/:id.
func (h *Handler) UpdatePaymentIntent(c *gin.Context) {
	var req psp.UpdatePaymentIntentRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	req.IntentID = c.Param("id")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentIntentResponse, error) {
		return svc.UpdatePaymentIntent(ctx, req)
	})
}

package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/psp"
)

// CreatePayment handles POST /payments.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req psp.CreatePaymentRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	call(h, c, req.Amount.Currency, http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.PaymentResponse, error) {
		return svc.CreatePayment(ctx, req)
	})
}

// GetPayment handles GET /payments/:id.
func (h *Handler) GetPayment(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentResponse, error) {
		return svc.GetPayment(ctx, c.Param("id"))
	})
}

// ConfirmPayment handles POST /payments/:id/confirm. The body is optional.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req psp.ConfirmPaymentRequest
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	req.PaymentID = c.Param("id")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentResponse, error) {
		return svc.ConfirmPayment(ctx, req)
	})
}

// CapturePayment handles POST /payments/:id/capture. Without a body the full
// authorized amount is captured.
func (h *Handler) CapturePayment(c *gin.Context) {
	var req psp.CapturePaymentRequest
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	req.PaymentID = c.Param("id")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentResponse, error) {
		return svc.CapturePayment(ctx, req)
	})
}

// CancelPayment handles POST /payments/:id/cancel.
func (h *Handler) CancelPayment(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.PaymentResponse, error) {
		return svc.CancelPayment(ctx, c.Param("id"))
	})
}

// CreateRefund handles POST /refunds.
func (h *Handler) CreateRefund(c *gin.Context) {
	var req psp.CreateRefundRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	call(h, c, "", http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.RefundResponse, error) {
		return svc.CreateRefund(ctx, req)
	})
}

// GetRefund handles GET /refunds/:id.
func (h *Handler) GetRefund(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.RefundResponse, error) {
		return svc.GetRefund(ctx, c.Param("id"))
	})
}

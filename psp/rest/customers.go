package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pspkit/psp"
)

// CreateCustomer handles POST /customers.
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req psp.CreateCustomerRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	call(h, c, "", http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.CustomerResponse, error) {
		return svc.CreateCustomer(ctx, req)
	})
}

// GetCustomer handles GET /customers/:id.
func (h *Handler) GetCustomer(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.CustomerResponse, error) {
		return svc.GetCustomer(ctx, c.Param("id"))
	})
}

// UpdateCustomer handles PATCH /customers/:id.
func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req psp.UpdateCustomerRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	req.CustomerID = c.Param("id")
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) (*psp.CustomerResponse, error) {
		return svc.UpdateCustomer(ctx, req)
	})
}

// DeleteCustomer handles DELETE /customers/:id.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	call(h, c, "", http.StatusNoContent, func(ctx context.Context, svc *psp.Service) (struct{}, error) {
		return struct{}{}, svc.DeleteCustomer(ctx, c.Param("id"))
	})
}

// AttachPaymentMethod handles POST /customers/:id/payment-methods.
func (h *Handler) AttachPaymentMethod(c *gin.Context) {
	var req psp.AttachPaymentMethodRequest
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	req.CustomerID = c.Param("id")
	call(h, c, "", http.StatusCreated, func(ctx context.Context, svc *psp.Service) (*psp.PaymentMethodResponse, error) {
		return svc.AttachPaymentMethod(ctx, req)
	})
}

// ListPaymentMethods handles GET /customers/:id/payment-methods.
func (h *Handler) ListPaymentMethods(c *gin.Context) {
	call(h, c, "", http.StatusOK, func(ctx context.Context, svc *psp.Service) ([]psp.PaymentMethodResponse, error) {
		return svc.ListPaymentMethods(ctx, c.Param("id"))
	})
}

// DetachPaymentMethod handles DELETE /customers/:id/payment-methods/:pmId.
func (h *Handler) DetachPaymentMethod(c *gin.Context) {
	call(h, c, "", http.StatusNoContent, func(ctx context.Context, svc *psp.Service) (struct{}, error) {
		return struct{}{}, svc.DetachPaymentMethod(ctx, c.Param("id"), c.Param("pmId"))
	})
}

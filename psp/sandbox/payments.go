package sandbox

import (
	"context"
	"maps"
	"slices"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/psp"
)

type paymentPort struct{ a *Adapter }

// CreatePayment stores a payment. A repeated idempotency key returns the
// payment created first. Payments without a payment method wait in
// REQUIRES_ACTION for ConfirmPayment; manual-capture payments wait in
// PENDING for CapturePayment.
func (p paymentPort) CreatePayment(ctx context.Context, req psp.CreatePaymentRequest) (*psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	if !a.SupportsCurrency(req.Amount.Currency) {
		return nil, errors.PaymentFailed(a.name, "currency "+req.Amount.Currency+" is not supported").
			WithProviderCode("currency_not_supported")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.idempotency[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return clonePayment(a.payments[id]), nil
	}

	now := a.now()
	customerID := req.CustomerID
	if customerID == "" && req.CustomerInfo != nil {
		customerID = req.CustomerInfo.CustomerID
	}
	pay := &psp.PaymentResponse{
		PaymentID:           newID("pay"),
		Amount:              req.Amount,
		PaymentMethodType:   req.PaymentMethodType,
		PaymentMethodID:     req.PaymentMethodID,
		CustomerID:          customerID,
		Description:         req.Description,
		StatementDescriptor: req.StatementDescriptor,
		CreatedAt:           now,
		UpdatedAt:           now,
		Metadata:            maps.Clone(req.Metadata),
	}
	pay.ProviderPaymentID = pay.PaymentID
	if pay.PaymentMethodID == "" && customerID != "" {
		if c, ok := a.customers[customerID]; ok {
			pay.PaymentMethodID = c.DefaultPaymentMethodID
		}
	}
	if pay.Metadata == nil {
		pay.Metadata = map[string]string{}
	}
	if req.ManualCapture {
		pay.Metadata["capture_method"] = "manual"
	}
	switch {
	case pay.PaymentMethodID == "":
		pay.Status = psp.PaymentStatusRequiresAction
		pay.ClientSecret = pay.PaymentID + "_secret"
		pay.RedirectURL = req.ReturnURL
	case req.ManualCapture:
		pay.Status = psp.PaymentStatusPending
	default:
		pay.Status = psp.PaymentStatusSucceeded
		captured := pay.Amount
		pay.AmountCaptured = &captured
	}

	a.payments[pay.PaymentID] = pay
	if req.IdempotencyKey != "" {
		a.idempotency[req.IdempotencyKey] = pay.PaymentID
	}
	return clonePayment(pay), nil
}

func (p paymentPort) GetPayment(ctx context.Context, paymentID string) (*psp.PaymentResponse, error) {
	if err := p.a.enter(ctx); err != nil {
		return nil, err
	}
	p.a.mu.Lock()
	defer p.a.mu.Unlock()
	pay, err := p.a.payment(paymentID)
	if err != nil {
		return nil, err
	}
	return clonePayment(pay), nil
}

// ConfirmPayment completes a payment in REQUIRES_ACTION.
func (p paymentPort) ConfirmPayment(ctx context.Context, req psp.ConfirmPaymentRequest) (*psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(req.PaymentID)
	if err != nil {
		return nil, err
	}
	if pay.Status != psp.PaymentStatusRequiresAction {
		return nil, errors.PaymentFailed(a.name, "payment "+pay.PaymentID+" is "+string(pay.Status)+" and cannot be confirmed").
			WithProviderCode("payment_intent_unexpected_state")
	}
	if req.PaymentMethodID != "" {
		pay.PaymentMethodID = req.PaymentMethodID
	}
	if pay.PaymentMethodID == "" {
		return nil, errors.PaymentFailed(a.name, "a payment method is required to confirm").
			WithProviderCode("payment_method_required")
	}
	if pay.Metadata["capture_method"] == "manual" {
		pay.Status = psp.PaymentStatusPending
	} else {
		pay.Status = psp.PaymentStatusSucceeded
		captured := pay.Amount
		pay.AmountCaptured = &captured
	}
	pay.ClientSecret, pay.RedirectURL = "", ""
	pay.UpdatedAt = a.now()
	return clonePayment(pay), nil
}

// CapturePayment captures a PENDING payment. The amount may not exceed what
// was authorized.
func (p paymentPort) CapturePayment(ctx context.Context, req psp.CapturePaymentRequest) (*psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(req.PaymentID)
	if err != nil {
		return nil, err
	}
	if pay.Status != psp.PaymentStatusPending {
		return nil, errors.PaymentFailed(a.name, "payment "+pay.PaymentID+" is "+string(pay.Status)+" and cannot be captured").
			WithProviderCode("payment_intent_unexpected_state")
	}
	captured := pay.Amount
	if req.Amount != nil {
		if req.Amount.Currency != pay.Amount.Currency || req.Amount.Amount.GreaterThan(pay.Amount.Amount) {
			return nil, errors.PaymentFailed(a.name, "capture amount "+req.Amount.String()+" exceeds the authorized "+pay.Amount.String()).
				WithProviderCode("amount_too_large")
		}
		captured = *req.Amount
	}
	pay.AmountCaptured = &captured
	pay.Status = psp.PaymentStatusSucceeded
	pay.UpdatedAt = a.now()
	return clonePayment(pay), nil
}

// CancelPayment cancels a payment that has not been captured.
func (p paymentPort) CancelPayment(ctx context.Context, paymentID string) (*psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(paymentID)
	if err != nil {
		return nil, err
	}
	switch pay.Status {
	case psp.PaymentStatusPending, psp.PaymentStatusRequiresAction, psp.PaymentStatusProcessing:
	default:
		return nil, errors.PaymentFailed(a.name, "payment "+pay.PaymentID+" is "+string(pay.Status)+" and cannot be cancelled").
			WithProviderCode("payment_intent_unexpected_state")
	}
	pay.Status = psp.PaymentStatusCancelled
	pay.UpdatedAt = a.now()
	return clonePayment(pay), nil
}

func (p paymentPort) ListPayments(ctx context.Context, req psp.ListPaymentsRequest) ([]psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.PaymentResponse
	for _, pay := range a.payments {
		if req.CustomerID != "" && pay.CustomerID != req.CustomerID {
			continue
		}
		if req.Status != "" && pay.Status != req.Status {
			continue
		}
		out = append(out, *clonePayment(pay))
	}
	slices.SortFunc(out, func(x, y psp.PaymentResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return page(out, func(p psp.PaymentResponse) string { return p.PaymentID }, req.Limit, req.StartingAfter), nil
}

func (p paymentPort) UpdatePayment(ctx context.Context, req psp.UpdatePaymentRequest) (*psp.PaymentResponse, error) {
	a := p.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(req.PaymentID)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		pay.Description = req.Description
	}
	if len(req.Metadata) > 0 {
		if pay.Metadata == nil {
			pay.Metadata = map[string]string{}
		}
		maps.Copy(pay.Metadata, req.Metadata)
	}
	pay.UpdatedAt = a.now()
	return clonePayment(pay), nil
}

func clonePayment(p *psp.PaymentResponse) *psp.PaymentResponse {
	out := *p
	out.Metadata = maps.Clone(p.Metadata)
	return &out
}

// payment returns the stored payment. Caller holds mu.
func (a *Adapter) payment(id string) (*psp.PaymentResponse, error) {
	pay, ok := a.payments[id]
	if !ok {
		return nil, errors.PaymentNotFound(a.name, id)
	}
	return pay, nil
}

type refundPort struct{ a *Adapter }

// CreateRefund refunds a captured payment. A nil amount refunds what remains.
func (r refundPort) CreateRefund(ctx context.Context, req psp.CreateRefundRequest) (*psp.RefundResponse, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(req.PaymentID)
	if err != nil {
		return nil, err
	}
	if pay.AmountCaptured == nil ||
		(pay.Status != psp.PaymentStatusSucceeded && pay.Status != psp.PaymentStatusPartiallyRefunded) {
		return nil, errors.PaymentFailed(a.name, "payment "+pay.PaymentID+" has not been captured").
			WithProviderCode("charge_not_captured")
	}

	refunded := psp.Money{Currency: pay.AmountCaptured.Currency}
	if pay.AmountRefunded != nil {
		refunded = *pay.AmountRefunded
	}
	remaining, err := pay.AmountCaptured.Sub(refunded)
	if err != nil {
		return nil, errors.Internal(err)
	}
	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.Currency != remaining.Currency || amount.Amount.GreaterThan(remaining.Amount) || !amount.Amount.IsPositive() {
		return nil, errors.PaymentFailed(a.name, "refund amount "+amount.String()+" exceeds the refundable "+remaining.String()).
			WithProviderCode("amount_too_large")
	}

	total, _ := refunded.Add(amount)
	pay.AmountRefunded = &total
	if total.Amount.Equal(pay.AmountCaptured.Amount) {
		pay.Status = psp.PaymentStatusRefunded
	} else {
		pay.Status = psp.PaymentStatusPartiallyRefunded
	}
	pay.UpdatedAt = a.now()

	ref := &psp.RefundResponse{
		RefundID:  newID("re"),
		PaymentID: pay.PaymentID,
		Amount:    amount,
		Status:    "SUCCEEDED",
		Reason:    req.Reason,
		CreatedAt: a.now(),
	}
	a.refunds[ref.RefundID] = ref
	out := *ref
	return &out, nil
}

func (r refundPort) GetRefund(ctx context.Context, refundID string) (*psp.RefundResponse, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ref, ok := a.refunds[refundID]
	if !ok {
		return nil, errors.NotFound("refund", refundID).WithDetail("provider", a.name)
	}
	out := *ref
	return &out, nil
}

// CancelRefund is refused: sandbox refunds succeed immediately.
func (r refundPort) CancelRefund(ctx context.Context, refundID string) (*psp.RefundResponse, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.refunds[refundID]; !ok {
		return nil, errors.NotFound("refund", refundID).WithDetail("provider", a.name)
	}
	return nil, errors.PaymentFailed(a.name, "refund "+refundID+" has already succeeded").
		WithProviderCode("refund_not_cancelable")
}

func (r refundPort) ListRefundsForPayment(ctx context.Context, paymentID string) ([]psp.RefundResponse, error) {
	return r.ListRefunds(ctx, psp.ListRefundsRequest{PaymentID: paymentID, Limit: 100})
}

func (r refundPort) ListRefunds(ctx context.Context, req psp.ListRefundsRequest) ([]psp.RefundResponse, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.RefundResponse
	for _, ref := range a.refunds {
		if req.PaymentID == "" || ref.PaymentID == req.PaymentID {
			out = append(out, *ref)
		}
	}
	slices.SortFunc(out, func(x, y psp.RefundResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return page(out, func(r psp.RefundResponse) string { return r.RefundID }, req.Limit, req.StartingAfter), nil
}

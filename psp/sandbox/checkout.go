package sandbox

import (
	"context"
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/psp"
)

const sessionTTL = 24 * time.Hour

type checkoutPort struct{ a *Adapter }

// CreateCheckoutSession opens a hosted session. Payment mode sessions total
// their line items when no amount is given.
func (c checkoutPort) CreateCheckoutSession(ctx context.Context, req psp.CreateCheckoutSessionRequest) (*psp.CheckoutSessionResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	amount := req.Amount
	if amount == nil && len(req.LineItems) > 0 {
		total, err := lineItemsTotal(req.LineItems)
		if err != nil {
			return nil, errors.PaymentValidation(a.name, err.Error())
		}
		amount = total
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	expires := now.Add(sessionTTL)
	if req.ExpiresAt != nil {
		expires = *req.ExpiresAt
	}
	customerID := req.CustomerID
	if customerID == "" && req.CustomerInfo != nil {
		customerID = req.CustomerInfo.CustomerID
	}
	s := &psp.CheckoutSessionResponse{
		SessionID:  newID("cs"),
		Mode:       req.Mode,
		Status:     "OPEN",
		Amount:     amount,
		CustomerID: customerID,
		ExpiresAt:  &expires,
		CreatedAt:  now,
		Metadata:   maps.Clone(req.Metadata),
	}
	s.CheckoutURL = "https://checkout.sandbox.invalid/" + s.SessionID
	s.ProviderSessionID = s.SessionID
	a.sessions[s.SessionID] = s
	return cloneSession(s), nil
}

func (c checkoutPort) GetCheckoutSession(ctx context.Context, sessionID string) (*psp.CheckoutSessionResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.session(sessionID)
	if err != nil {
		return nil, err
	}
	return cloneSession(s), nil
}

func (c checkoutPort) ExpireCheckoutSession(ctx context.Context, sessionID string) (*psp.CheckoutSessionResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.session(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != "OPEN" {
		return nil, errors.Conflict("checkout session " + sessionID + " is " + s.Status).WithDetail("provider", a.name)
	}
	now := a.now()
	s.Status = "EXPIRED"
	s.ExpiresAt = &now
	return cloneSession(s), nil
}

func (c checkoutPort) CreatePaymentIntent(ctx context.Context, req psp.CreatePaymentIntentRequest) (*psp.PaymentIntentResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	in := &psp.PaymentIntentResponse{
		IntentID:        newID("pi"),
		Amount:          req.Amount,
		CustomerID:      req.CustomerID,
		Status:          psp.PaymentStatusRequiresAction,
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
		CreatedAt:       a.now(),
		Metadata:        maps.Clone(req.Metadata),
	}
	in.ClientSecret = in.IntentID + "_secret"
	if req.PaymentMethodID == "" {
		in.NextAction = map[string]any{"type": "collect_payment_method"}
	} else {
		in.NextAction = map[string]any{"type": "confirm"}
	}
	a.intents[in.IntentID] = in
	return cloneIntent(in), nil
}

func (c checkoutPort) GetPaymentIntent(ctx context.Context, intentID string) (*psp.PaymentIntentResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.intent(intentID)
	if err != nil {
		return nil, err
	}
	return cloneIntent(in), nil
}

// UpdatePaymentIntent changes an intent that has not completed.
func (c checkoutPort) UpdatePaymentIntent(ctx context.Context, req psp.UpdatePaymentIntentRequest) (*psp.PaymentIntentResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.intent(req.IntentID)
	if err != nil {
		return nil, err
	}
	if in.Status.IsTerminal() {
		return nil, errors.Conflict("payment intent " + in.IntentID + " is " + string(in.Status)).WithDetail("provider", a.name)
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.Description != "" {
		in.Description = req.Description
	}
	if len(req.Metadata) > 0 {
		if in.Metadata == nil {
			in.Metadata = map[string]string{}
		}
		maps.Copy(in.Metadata, req.Metadata)
	}
	return cloneIntent(in), nil
}

func (c checkoutPort) CancelPaymentIntent(ctx context.Context, intentID string) (*psp.PaymentIntentResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.intent(intentID)
	if err != nil {
		return nil, err
	}
	if in.Status.IsTerminal() {
		return nil, errors.Conflict("payment intent " + in.IntentID + " is " + string(in.Status)).WithDetail("provider", a.name)
	}
	in.Status = psp.PaymentStatusCancelled
	in.NextAction = nil
	return cloneIntent(in), nil
}

func (a *Adapter) session(id string) (*psp.CheckoutSessionResponse, error) {
	s, ok := a.sessions[id]
	if !ok {
		return nil, errors.NotFound("checkout session", id).WithDetail("provider", a.name)
	}
	if s.Status == "OPEN" && s.ExpiresAt != nil && a.now().After(*s.ExpiresAt) {
		s.Status = "EXPIRED"
	}
	return s, nil
}

func (a *Adapter) intent(id string) (*psp.PaymentIntentResponse, error) {
	in, ok := a.intents[id]
	if !ok {
		return nil, errors.NotFound("payment intent", id).WithDetail("provider", a.name)
	}
	return in, nil
}

func lineItemsTotal(items []psp.CheckoutLineItem) (*psp.Money, error) {
	var total *psp.Money
	for _, it := range items {
		if it.Price == nil {
			continue
		}
		line := psp.Money{Amount: it.Price.Amount.Mul(decimal.NewFromInt(int64(it.Quantity))), Currency: it.Price.Currency}
		if total == nil {
			total = &line
			continue
		}
		sum, err := total.Add(line)
		if err != nil {
			return nil, err
		}
		total = &sum
	}
	return total, nil
}

func cloneSession(s *psp.CheckoutSessionResponse) *psp.CheckoutSessionResponse {
	out := *s
	out.Metadata = maps.Clone(s.Metadata)
	return &out
}

func cloneIntent(in *psp.PaymentIntentResponse) *psp.PaymentIntentResponse {
	out := *in
	out.Metadata = maps.Clone(in.Metadata)
	out.NextAction = maps.Clone(in.NextAction)
	return &out
}

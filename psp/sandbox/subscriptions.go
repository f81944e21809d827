package sandbox

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/psp"
)

type subscriptionPort struct{ a *Adapter }

func (s subscriptionPort) CreatePricingPlan(ctx context.Context, req psp.CreatePricingPlanRequest) (*psp.PricingPlanResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	count := req.IntervalCount
	if count == 0 {
		count = 1
	}
	plan := &psp.PricingPlanResponse{
		PlanID:          newID("plan"),
		Name:            req.Name,
		Description:     req.Description,
		Amount:          req.Amount,
		Interval:        req.Interval,
		IntervalCount:   count,
		TrialPeriodDays: req.TrialPeriodDays,
		Active:          true,
		CreatedAt:       a.now(),
	}
	a.plans[plan.PlanID] = plan
	out := *plan
	return &out, nil
}

func (s subscriptionPort) GetPricingPlan(ctx context.Context, planID string) (*psp.PricingPlanResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	plan, err := a.plan(planID)
	if err != nil {
		return nil, err
	}
	out := *plan
	return &out, nil
}

func (s subscriptionPort) UpdatePricingPlan(ctx context.Context, req psp.UpdatePricingPlanRequest) (*psp.PricingPlanResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	plan, err := a.plan(req.PlanID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}
	out := *plan
	return &out, nil
}

func (s subscriptionPort) ListPricingPlans(ctx context.Context, req psp.ListPricingPlansRequest) ([]psp.PricingPlanResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.PricingPlanResponse
	for _, plan := range a.plans {
		if req.ActiveOnly && !plan.Active {
			continue
		}
		out = append(out, *plan)
	}
	slices.SortFunc(out, func(x, y psp.PricingPlanResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return page(out, func(p psp.PricingPlanResponse) string { return p.PlanID }, req.Limit, req.StartingAfter), nil
}

// CreateSubscription starts a subscription on an active plan. Plans with a
// trial start in TRIALING; the rest start ACTIVE and get a paid invoice for
// the first period.
func (s subscriptionPort) CreateSubscription(ctx context.Context, req psp.CreateSubscriptionRequest) (*psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.customer(req.CustomerID); err != nil {
		return nil, err
	}
	plan, err := a.plan(req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, errors.PaymentFailed(a.name, "pricing plan "+plan.PlanID+" is not active").
			WithProviderCode("plan_inactive")
	}

	now := a.now()
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	end := periodEnd(now, plan.Interval, plan.IntervalCount)
	sub := &psp.SubscriptionResponse{
		SubscriptionID:     newID("sub"),
		CustomerID:         req.CustomerID,
		PlanID:             plan.PlanID,
		Status:             psp.SubscriptionStatusActive,
		Quantity:           qty,
		Interval:           plan.Interval,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
		CancelAtPeriodEnd:  req.CancelAtPeriodEnd,
		CreatedAt:          now,
		Metadata:           maps.Clone(req.Metadata),
	}
	amount := periodAmount(plan, qty)
	sub.Amount = &amount

	trialEnd := req.TrialEnd
	if trialEnd == nil && plan.TrialPeriodDays > 0 {
		t := now.AddDate(0, 0, plan.TrialPeriodDays)
		trialEnd = &t
	}
	if trialEnd != nil && trialEnd.After(now) {
		sub.Status = psp.SubscriptionStatusTrialing
		sub.TrialStart = &now
		sub.TrialEnd = trialEnd
	} else {
		a.invoices[sub.SubscriptionID] = append(a.invoices[sub.SubscriptionID],
			invoice(sub, plan, qty, now, "PAID"))
	}
	a.subscriptions[sub.SubscriptionID] = sub
	return cloneSubscription(sub), nil
}

func (s subscriptionPort) GetSubscription(ctx context.Context, subscriptionID string) (*psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.subscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	return cloneSubscription(sub), nil
}

func (s subscriptionPort) UpdateSubscription(ctx context.Context, req psp.UpdateSubscriptionRequest) (*psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.subscription(req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == psp.SubscriptionStatusCanceled {
		return nil, errors.Conflict("subscription " + sub.SubscriptionID + " is canceled").WithDetail("provider", a.name)
	}
	if req.PlanID != "" {
		plan, err := a.plan(req.PlanID)
		if err != nil {
			return nil, err
		}
		sub.PlanID, sub.Interval = plan.PlanID, plan.Interval
	}
	if req.Quantity > 0 {
		sub.Quantity = req.Quantity
	}
	if plan, ok := a.plans[sub.PlanID]; ok {
		amount := periodAmount(plan, sub.Quantity)
		sub.Amount = &amount
	}
	if req.CancelAtPeriodEnd != nil {
		sub.CancelAtPeriodEnd = *req.CancelAtPeriodEnd
	}
	if len(req.Metadata) > 0 {
		if sub.Metadata == nil {
			sub.Metadata = map[string]string{}
		}
		maps.Copy(sub.Metadata, req.Metadata)
	}
	return cloneSubscription(sub), nil
}

// CancelSubscription cancels now when Immediately is set, otherwise at the
// end of the current period.
func (s subscriptionPort) CancelSubscription(ctx context.Context, req psp.CancelSubscriptionRequest) (*psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.subscription(req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == psp.SubscriptionStatusCanceled {
		return cloneSubscription(sub), nil
	}
	if req.Immediately {
		now := a.now()
		sub.Status = psp.SubscriptionStatusCanceled
		sub.CanceledAt = &now
	} else {
		sub.CancelAtPeriodEnd = true
	}
	if req.CancellationReason != "" {
		if sub.Metadata == nil {
			sub.Metadata = map[string]string{}
		}
		sub.Metadata["cancellation_reason"] = req.CancellationReason
	}
	return cloneSubscription(sub), nil
}

func (s subscriptionPort) PauseSubscription(ctx context.Context, subscriptionID string) (*psp.SubscriptionResponse, error) {
	return s.transition(ctx, subscriptionID, psp.SubscriptionStatusPaused,
		psp.SubscriptionStatusActive, psp.SubscriptionStatusTrialing)
}

func (s subscriptionPort) ResumeSubscription(ctx context.Context, subscriptionID string) (*psp.SubscriptionResponse, error) {
	return s.transition(ctx, subscriptionID, psp.SubscriptionStatusActive, psp.SubscriptionStatusPaused)
}

func (s subscriptionPort) transition(ctx context.Context, id string, to psp.SubscriptionStatus, from ...psp.SubscriptionStatus) (*psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.subscription(id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(from, sub.Status) {
		return nil, errors.Conflict("subscription " + id + " is " + string(sub.Status)).WithDetail("provider", a.name)
	}
	sub.Status = to
	return cloneSubscription(sub), nil
}

func (s subscriptionPort) ListSubscriptionsForCustomer(ctx context.Context, customerID string) ([]psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.SubscriptionResponse
	for _, sub := range a.subscriptions {
		if sub.CustomerID == customerID {
			out = append(out, *cloneSubscription(sub))
		}
	}
	slices.SortFunc(out, func(x, y psp.SubscriptionResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return out, nil
}

func (s subscriptionPort) ListSubscriptions(ctx context.Context, req psp.ListSubscriptionsRequest) ([]psp.SubscriptionResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.SubscriptionResponse
	for _, sub := range a.subscriptions {
		if req.Status != "" && sub.Status != req.Status {
			continue
		}
		out = append(out, *cloneSubscription(sub))
	}
	slices.SortFunc(out, func(x, y psp.SubscriptionResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return page(out, func(s psp.SubscriptionResponse) string { return s.SubscriptionID }, req.Limit, req.StartingAfter), nil
}

// GetUpcomingInvoice previews the invoice due at the end of the current
// period or trial.
func (s subscriptionPort) GetUpcomingInvoice(ctx context.Context, subscriptionID string) (*psp.InvoiceResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.subscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == psp.SubscriptionStatusCanceled || sub.CancelAtPeriodEnd {
		return nil, errors.NotFound("upcoming invoice", subscriptionID).WithDetail("provider", a.name)
	}
	plan, err := a.plan(sub.PlanID)
	if err != nil {
		return nil, err
	}
	due := *sub.CurrentPeriodEnd
	if sub.TrialEnd != nil && sub.Status == psp.SubscriptionStatusTrialing {
		due = *sub.TrialEnd
	}
	inv := invoice(sub, plan, sub.Quantity, due, "DRAFT")
	inv.InvoiceID = ""
	inv.PaidAt = nil
	inv.AmountPaid = psp.Money{Currency: plan.Amount.Currency}
	return &inv, nil
}

func (s subscriptionPort) ListInvoicesForSubscription(ctx context.Context, subscriptionID string) ([]psp.InvoiceResponse, error) {
	a := s.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.subscription(subscriptionID); err != nil {
		return nil, err
	}
	return slices.Clone(a.invoices[subscriptionID]), nil
}

func (a *Adapter) plan(id string) (*psp.PricingPlanResponse, error) {
	plan, ok := a.plans[id]
	if !ok {
		return nil, errors.NotFound("pricing plan", id).WithDetail("provider", a.name)
	}
	return plan, nil
}

func (a *Adapter) subscription(id string) (*psp.SubscriptionResponse, error) {
	sub, ok := a.subscriptions[id]
	if !ok {
		return nil, errors.NotFound("subscription", id).WithDetail("provider", a.name)
	}
	return sub, nil
}

func periodEnd(start time.Time, interval psp.BillingInterval, count int) time.Time {
	if count < 1 {
		count = 1
	}
	switch interval {
	case psp.BillingIntervalDay:
		return start.AddDate(0, 0, count)
	case psp.BillingIntervalWeek:
		return start.AddDate(0, 0, 7*count)
	case psp.BillingIntervalYear:
		return start.AddDate(count, 0, 0)
	default:
		return start.AddDate(0, count, 0)
	}
}

func periodAmount(plan *psp.PricingPlanResponse, qty int) psp.Money {
	return psp.Money{
		Amount:   plan.Amount.Amount.Mul(decimal.NewFromInt(int64(qty))),
		Currency: plan.Amount.Currency,
	}
}

func invoice(sub *psp.SubscriptionResponse, plan *psp.PricingPlanResponse, qty int, at time.Time, status string) psp.InvoiceResponse {
	total := periodAmount(plan, qty)
	inv := psp.InvoiceResponse{
		InvoiceID:      newID("in"),
		SubscriptionID: sub.SubscriptionID,
		CustomerID:     sub.CustomerID,
		AmountDue:      total,
		AmountPaid:     total,
		Status:         status,
		DueDate:        &at,
		LineItems: []psp.InvoiceLineItem{{
			Description: plan.Name,
			Quantity:    qty,
			Amount:      plan.Amount,
			TotalAmount: total,
		}},
		CreatedAt: at,
	}
	if status == "PAID" {
		inv.PaidAt = &at
	}
	return inv
}

func cloneSubscription(s *psp.SubscriptionResponse) *psp.SubscriptionResponse {
	out := *s
	out.Metadata = maps.Clone(s.Metadata)
	return &out
}

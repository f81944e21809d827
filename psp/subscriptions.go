package psp

import "time"

// CreatePricingPlanRequest defines a recurring price.
type CreatePricingPlanRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description,omitempty"`
	Amount          Money           `json:"amount"`
	Interval        BillingInterval `json:"interval" validate:"required,oneof=DAY WEEK MONTH YEAR"`
	IntervalCount   int             `json:"interval_count,omitempty" validate:"gte=0"`
	TrialPeriodDays int             `json:"trial_period_days,omitempty" validate:"gte=0"`
}

// UpdatePricingPlanRequest changes the mutable fields of a plan.
type UpdatePricingPlanRequest struct {
	PlanID      string `json:"plan_id" validate:"required"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// ListPricingPlansRequest pages through plans.
type ListPricingPlansRequest struct {
	ActiveOnly    bool   `json:"active_only,omitempty"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// PricingPlanResponse is a provider-independent view of a plan.
type PricingPlanResponse struct {
	PlanID          string          `json:"plan_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Amount          Money           `json:"amount"`
	Interval        BillingInterval `json:"interval"`
	IntervalCount   int             `json:"interval_count,omitempty"`
	TrialPeriodDays int             `json:"trial_period_days,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateSubscriptionRequest subscribes a customer to a plan.
type CreateSubscriptionRequest struct {
	CustomerID        string            `json:"customer_id" validate:"required"`
	PlanID            string            `json:"plan_id" validate:"required"`
	PaymentMethodID   string            `json:"payment_method_id,omitempty"`
	Quantity          int               `json:"quantity,omitempty" validate:"gte=0"`
	TrialEnd          *time.Time        `json:"trial_end,omitempty"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// UpdateSubscriptionRequest changes a subscription. Zero fields are left as is.
type UpdateSubscriptionRequest struct {
	SubscriptionID    string            `json:"subscription_id" validate:"required"`
	PlanID            string            `json:"plan_id,omitempty"`
	Quantity          int               `json:"quantity,omitempty" validate:"gte=0"`
	PaymentMethodID   string            `json:"payment_method_id,omitempty"`
	CancelAtPeriodEnd *bool             `json:"cancel_at_period_end,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// CancelSubscriptionRequest cancels a subscription now or at period end.
type CancelSubscriptionRequest struct {
	SubscriptionID     string `json:"subscription_id" validate:"required"`
	Immediately        bool   `json:"immediately,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// ListSubscriptionsRequest pages through subscriptions.
type ListSubscriptionsRequest struct {
	Status        SubscriptionStatus `json:"status,omitempty"`
	Limit         int                `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string             `json:"starting_after,omitempty"`
}

// SubscriptionResponse is a provider-independent view of a subscription.
type SubscriptionResponse struct {
	SubscriptionID     string             `json:"subscription_id"`
	CustomerID         string             `json:"customer_id"`
	PlanID             string             `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	Quantity           int                `json:"quantity,omitempty"`
	Amount             *Money             `json:"amount,omitempty"`
	Interval           BillingInterval    `json:"interval,omitempty"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	TrialStart         *time.Time         `json:"trial_start,omitempty"`
	TrialEnd           *time.Time         `json:"trial_end,omitempty"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
}

// InvoiceLineItem is one line of an invoice.
type InvoiceLineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Amount      Money  `json:"amount"`
	TotalAmount Money  `json:"total_amount"`
}

// InvoiceResponse is a provider-independent view of an invoice.
type InvoiceResponse struct {
	InvoiceID      string            `json:"invoice_id"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	CustomerID     string            `json:"customer_id"`
	AmountDue      Money             `json:"amount_due"`
	AmountPaid     Money             `json:"amount_paid"`
	Status         string            `json:"status"`
	DueDate        *time.Time        `json:"due_date,omitempty"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	LineItems      []InvoiceLineItem `json:"line_items,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

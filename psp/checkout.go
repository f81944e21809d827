package psp

import "time"

// CheckoutLineItem is one line of a hosted checkout.
type CheckoutLineItem struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Price       *Money `json:"price,omitempty"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
	PlanID      string `json:"plan_id,omitempty"`
}

// CreateCheckoutSessionRequest starts a provider-hosted checkout.
type CreateCheckoutSessionRequest struct {
	Mode                  CheckoutMode        `json:"mode" validate:"required,oneof=PAYMENT SUBSCRIPTION SETUP"`
	Amount                *Money              `json:"amount,omitempty"`
	CustomerID            string              `json:"customer_id,omitempty"`
	CustomerInfo          *CustomerInfo       `json:"customer_info,omitempty"`
	SubscriptionPlanID    string              `json:"subscription_plan_id,omitempty"`
	LineItems             []CheckoutLineItem  `json:"line_items,omitempty" validate:"dive"`
	SuccessURL            string              `json:"success_url" validate:"required,url"`
	CancelURL             string              `json:"cancel_url" validate:"required,url"`
	ExpiresAt             *time.Time          `json:"expires_at,omitempty"`
	Metadata              map[string]string   `json:"metadata,omitempty"`
	AllowedPaymentMethods []PaymentMethodType `json:"allowed_payment_methods,omitempty"`
}

// CheckoutSessionResponse is a provider-independent view of a checkout session.
type CheckoutSessionResponse struct {
	SessionID         string            `json:"session_id"`
	CheckoutURL       string            `json:"checkout_url"`
	Mode              CheckoutMode      `json:"mode"`
	Status            string            `json:"status"`
	Amount            *Money            `json:"amount,omitempty"`
	CustomerID        string            `json:"customer_id,omitempty"`
	PaymentID         string            `json:"payment_id,omitempty"`
	SubscriptionID    string            `json:"subscription_id,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	ProviderSessionID string            `json:"provider_session_id,omitempty"`
}

// CreatePaymentIntentRequest creates a payment intent for client-side confirmation.
type CreatePaymentIntentRequest struct {
	Amount                Money               `json:"amount"`
	CustomerID            string              `json:"customer_id,omitempty"`
	PaymentMethodID       string              `json:"payment_method_id,omitempty"`
	Description           string              `json:"description,omitempty"`
	ManualCapture         bool                `json:"manual_capture,omitempty"`
	ReturnURL             string              `json:"return_url,omitempty" validate:"omitempty,url"`
	Metadata              map[string]string   `json:"metadata,omitempty"`
	AllowedPaymentMethods []PaymentMethodType `json:"allowed_payment_methods,omitempty"`
}

// UpdatePaymentIntentRequest changes an unconfirmed payment intent.
type UpdatePaymentIntentRequest struct {
	IntentID    string            `json:"intent_id" validate:"required"`
	Amount      *Money            `json:"amount,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PaymentIntentResponse is a provider-independent view of a payment intent.
// NextAction holds the provider's instructions when Status is REQUIRES_ACTION.
type PaymentIntentResponse struct {
	IntentID        string            `json:"intent_id"`
	ClientSecret    string            `json:"client_secret,omitempty"`
	Amount          Money             `json:"amount"`
	CustomerID      string            `json:"customer_id,omitempty"`
	Status          PaymentStatus     `json:"status"`
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	NextAction      map[string]any    `json:"next_action,omitempty"`
}

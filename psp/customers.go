package psp

import "time"

// CreateCustomerRequest stores a customer at the provider.
type CreateCustomerRequest struct {
	CustomerInfo    CustomerInfo      `json:"customer_info"`
	Description     string            `json:"description,omitempty"`
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// UpdateCustomerRequest changes a stored customer. Nil fields are left as is.
type UpdateCustomerRequest struct {
	CustomerID   string            `json:"customer_id" validate:"required"`
	CustomerInfo *CustomerInfo     `json:"customer_info,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListCustomersRequest pages through customers.
type ListCustomersRequest struct {
	Email         string `json:"email,omitempty"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// CustomerResponse is a provider-independent view of a customer.
type CustomerResponse struct {
	CustomerID             string            `json:"customer_id"`
	Email                  string            `json:"email,omitempty"`
	Name                   string            `json:"name,omitempty"`
	Phone                  string            `json:"phone,omitempty"`
	DefaultPaymentMethodID string            `json:"default_payment_method_id,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
}

// AttachPaymentMethodRequest attaches a tokenized payment method to a customer.
type AttachPaymentMethodRequest struct {
	CustomerID      string `json:"customer_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	SetAsDefault    bool   `json:"set_as_default,omitempty"`
}

// PaymentMethodResponse is a stored payment method. Details holds the
// provider's non-sensitive description (brand, last4, expiry).
type PaymentMethodResponse struct {
	PaymentMethodID string            `json:"payment_method_id"`
	Type            PaymentMethodType `json:"type"`
	CustomerID      string            `json:"customer_id,omitempty"`
	Details         map[string]any    `json:"details,omitempty"`
}

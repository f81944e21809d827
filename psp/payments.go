package psp

import "time"

// CreatePaymentRequest asks a provider to create (and by default capture) a payment.
type CreatePaymentRequest struct {
	Amount              Money             `json:"amount"`
	CustomerID          string            `json:"customer_id,omitempty"`
	CustomerInfo        *CustomerInfo     `json:"customer_info,omitempty"`
	PaymentMethodID     string            `json:"payment_method_id,omitempty"`
	PaymentMethodType   PaymentMethodType `json:"payment_method_type,omitempty"`
	Description         string            `json:"description,omitempty" validate:"max=1000"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty" validate:"max=22"`
	// ManualCapture leaves the payment authorized until CapturePayment.
	ManualCapture  bool              `json:"manual_capture,omitempty"`
	ReturnURL      string            `json:"return_url,omitempty" validate:"omitempty,url"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// UpdatePaymentRequest changes the mutable fields of a payment.
type UpdatePaymentRequest struct {
	PaymentID   string            `json:"payment_id" validate:"required"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ConfirmPaymentRequest confirms a payment that requires action.
type ConfirmPaymentRequest struct {
	PaymentID       string `json:"payment_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	ReturnURL       string `json:"return_url,omitempty" validate:"omitempty,url"`
}

// CapturePaymentRequest captures an authorized payment. A nil Amount
// captures the full authorized amount.
type CapturePaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Amount    *Money `json:"amount,omitempty"`
}

// ListPaymentsRequest pages through payments, newest first.
type ListPaymentsRequest struct {
	CustomerID    string        `json:"customer_id,omitempty"`
	Status        PaymentStatus `json:"status,omitempty"`
	Limit         int           `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string        `json:"starting_after,omitempty"`
}

// PaymentResponse is a provider-independent view of a payment.
type PaymentResponse struct {
	PaymentID           string            `json:"payment_id"`
	Amount              Money             `json:"amount"`
	AmountCaptured      *Money            `json:"amount_captured,omitempty"`
	AmountRefunded      *Money            `json:"amount_refunded,omitempty"`
	Status              PaymentStatus     `json:"status"`
	PaymentMethodType   PaymentMethodType `json:"payment_method_type,omitempty"`
	PaymentMethodID     string            `json:"payment_method_id,omitempty"`
	CustomerID          string            `json:"customer_id,omitempty"`
	Description         string            `json:"description,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	ClientSecret        string            `json:"client_secret,omitempty"`
	RedirectURL         string            `json:"redirect_url,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	ProviderPaymentID   string            `json:"provider_payment_id,omitempty"`
	ProviderRawResponse any               `json:"provider_raw_response,omitempty"`
}

// CreateRefundRequest refunds a payment. A nil Amount refunds the remainder.
type CreateRefundRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Amount    *Money `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ListRefundsRequest pages through refunds.
type ListRefundsRequest struct {
	PaymentID     string `json:"payment_id,omitempty"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// RefundResponse is a provider-independent view of a refund.
type RefundResponse struct {
	RefundID  string    `json:"refund_id"`
	PaymentID string    `json:"payment_id"`
	Amount    Money     `json:"amount"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePayoutRequest sends funds from the provider balance to a destination.
type CreatePayoutRequest struct {
	Amount      Money  `json:"amount"`
	Destination string `json:"destination" validate:"required"`
	Description string `json:"description,omitempty"`
}

// ListPayoutsRequest pages through payouts.
type ListPayoutsRequest struct {
	Status        string `json:"status,omitempty"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// PayoutResponse is a provider-independent view of a payout.
type PayoutResponse struct {
	PayoutID    string    `json:"payout_id"`
	Amount      Money     `json:"amount"`
	Destination string    `json:"destination,omitempty"`
	Status      string    `json:"status"`
	ArrivalDate time.Time `json:"arrival_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PayoutScheduleResponse describes how often a balance is paid out.
type PayoutScheduleResponse struct {
	AccountID     string `json:"account_id"`
	Interval      string `json:"interval"`
	DelayDays     int    `json:"delay_days"`
	WeeklyAnchor  string `json:"weekly_anchor,omitempty"`
	MonthlyAnchor int    `json:"monthly_anchor,omitempty"`
}

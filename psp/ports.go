package psp

import (
	"context"
	"time"

	"github.com/kbukum/pspkit/provider"
)

// Adapter is implemented once per payment service provider. It exposes the
// provider through nine ports. A port the provider does not offer may be nil,
// and Service reports calls to it as UNSUPPORTED_OPERATION.
//
// Name identifies the provider in policy instance names and metric tags.
// IsAvailable is the provider's own liveness check.
type Adapter interface {
	provider.Provider

	Payments() PaymentPort
	Refunds() RefundPort
	Payouts() PayoutPort
	Customers() CustomerPort
	Disputes() DisputePort
	Subscriptions() SubscriptionPort
	Checkout() CheckoutPort
	ProviderSpecific() ProviderSpecificPort
	Reconciliation() ReconciliationPort
}

// PaymentPort creates and manages payments.
type PaymentPort interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*PaymentResponse, error)
	CapturePayment(ctx context.Context, req CapturePaymentRequest) (*PaymentResponse, error)
	CancelPayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]PaymentResponse, error)
	UpdatePayment(ctx context.Context, req UpdatePaymentRequest) (*PaymentResponse, error)
}

// RefundPort creates and manages refunds.
type RefundPort interface {
	CreateRefund(ctx context.Context, req CreateRefundRequest) (*RefundResponse, error)
	GetRefund(ctx context.Context, refundID string) (*RefundResponse, error)
	CancelRefund(ctx context.Context, refundID string) (*RefundResponse, error)
	ListRefundsForPayment(ctx context.Context, paymentID string) ([]RefundResponse, error)
	ListRefunds(ctx context.Context, req ListRefundsRequest) ([]RefundResponse, error)
}

// PayoutPort moves funds from the provider balance.
type PayoutPort interface {
	CreatePayout(ctx context.Context, req CreatePayoutRequest) (*PayoutResponse, error)
	GetPayout(ctx context.Context, payoutID string) (*PayoutResponse, error)
	CancelPayout(ctx context.Context, payoutID string) (*PayoutResponse, error)
	ListPayouts(ctx context.Context, req ListPayoutsRequest) ([]PayoutResponse, error)
	GetPayoutSchedule(ctx context.Context, accountID string) (*PayoutScheduleResponse, error)
}

// CustomerPort stores customers and their payment methods.
type CustomerPort interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error)
	GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error)
	UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) (*CustomerResponse, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	ListCustomers(ctx context.Context, req ListCustomersRequest) ([]CustomerResponse, error)
	AttachPaymentMethod(ctx context.Context, req AttachPaymentMethodRequest) (*PaymentMethodResponse, error)
	DetachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethodResponse, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*CustomerResponse, error)
}

// DisputePort handles chargebacks.
type DisputePort interface {
	GetDispute(ctx context.Context, disputeID string) (*DisputeResponse, error)
	ListDisputes(ctx context.Context, req ListDisputesRequest) ([]DisputeResponse, error)
	SubmitEvidence(ctx context.Context, req SubmitEvidenceRequest) (*DisputeResponse, error)
	AcceptDispute(ctx context.Context, disputeID string) (*DisputeResponse, error)
	CloseDispute(ctx context.Context, disputeID string) (*DisputeResponse, error)
}

// SubscriptionPort manages pricing plans, subscriptions and their invoices.
type SubscriptionPort interface {
	CreatePricingPlan(ctx context.Context, req CreatePricingPlanRequest) (*PricingPlanResponse, error)
	GetPricingPlan(ctx context.Context, planID string) (*PricingPlanResponse, error)
	UpdatePricingPlan(ctx context.Context, req UpdatePricingPlanRequest) (*PricingPlanResponse, error)
	ListPricingPlans(ctx context.Context, req ListPricingPlansRequest) ([]PricingPlanResponse, error)

	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionResponse, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error)
	UpdateSubscription(ctx context.Context, req UpdateSubscriptionRequest) (*SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*SubscriptionResponse, error)
	PauseSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error)
	ListSubscriptionsForCustomer(ctx context.Context, customerID string) ([]SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, req ListSubscriptionsRequest) ([]SubscriptionResponse, error)

	GetUpcomingInvoice(ctx context.Context, subscriptionID string) (*InvoiceResponse, error)
	ListInvoicesForSubscription(ctx context.Context, subscriptionID string) ([]InvoiceResponse, error)
}

// CheckoutPort manages hosted checkout sessions and payment intents.
type CheckoutPort interface {
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutSessionRequest) (*CheckoutSessionResponse, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionResponse, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionResponse, error)
	CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*PaymentIntentResponse, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntentResponse, error)
	UpdatePaymentIntent(ctx context.Context, req UpdatePaymentIntentRequest) (*PaymentIntentResponse, error)
	CancelPaymentIntent(ctx context.Context, intentID string) (*PaymentIntentResponse, error)
}

// ProviderSpecificPort exposes operations that only one provider offers.
// OperationRegistry is the standard implementation.
type ProviderSpecificPort interface {
	ExecuteOperation(ctx context.Context, name string, req ProviderOperationRequest) (*ProviderOperationResponse, error)
	SupportsOperation(name string) bool
	SupportedOperations() []string
	OperationMetadata(name string) (*ProviderOperationResponse, error)
}

// ReconciliationPort compares internal records with the provider's books.
// Dates are interpreted as UTC calendar days.
type ReconciliationPort interface {
	ReconcilePayments(ctx context.Context, from, to time.Time) ([]PaymentDiscrepancy, error)
	SettlementReport(ctx context.Context, day time.Time) (*SettlementReport, error)
	VerifyPaymentState(ctx context.Context, paymentID string, expectedStatus PaymentStatus, expectedAmount Money) (*PaymentDiscrepancy, error)
	Transactions(ctx context.Context, day time.Time) ([]PSPTransaction, error)
}

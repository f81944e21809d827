package psp

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/resilience"
)

// Operation tags. Each names the policy instance "{provider}-{operation}"
// shared by every call in the group.
const (
	OperationPayment          = "payment"
	OperationRefund           = "refund"
	OperationSubscription     = "subscription"
	OperationCheckout         = "checkout"
	OperationCustomer         = "customer"
	OperationProviderSpecific = "provider_specific"
)


// Service is the provider-independent entry point for payment operations.
// Requests are validated, then every provider call runs through the
// resilience executor under its operation tag, inside a trace span. Failures
// are returned as *errors.AppError.
type Service struct {
	adapter     Adapter
	exec        *resilience.Executor
	validator   *PaymentValidator
	metrics     *observability.Metrics
	serviceName string
	log         *logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithValidator replaces the default validator.
func WithValidator(v *PaymentValidator) ServiceOption {
	return func(s *Service) { s.validator = v }
}

// WithRequestMetrics records request start/end metrics for each call.
func WithRequestMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithServiceName sets the service name on spans. Defaults to "psp".
func WithServiceName(name string) ServiceOption {
	return func(s *Service) { s.serviceName = name }
}

// NewService creates a Service for adapter.
func NewService(adapter Adapter, exec *resilience.Executor, opts ...ServiceOption) *Service {
	s := &Service{
		adapter:     adapter,
		exec:        exec,
		validator:   NewPaymentValidator(nil),
		serviceName: "psp",
		log:         logger.Get("psp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the adapter's provider name.
func (s *Service) Provider() string { return s.adapter.Name() }

// Adapter returns the underlying adapter.
func (s *Service) Adapter() Adapter { return s.adapter }

// run executes one provider call. method names the call in spans and logs.
func run[T any](ctx context.Context, s *Service, operation, method string, work func(context.Context) (T, error)) (T, error) {
	provider := s.adapter.Name()
	ctx, call := observability.StartCall(ctx, s.serviceName, provider, operation+"."+method, logger.RequestIDFromContext(ctx), s.metrics)

	v, err := resilience.Execute(ctx, s.exec, provider, operation, work)
	if err != nil {
		appErr := mapError(provider, method, err)
		call.End(ctx, appErr)
		s.log.WithContext(ctx).Error("provider call failed", logger.MergeWithError(logger.Fields(
			logger.FieldProvider, provider,
			logger.FieldOperation, method,
			logger.FieldDuration, call.Duration().Milliseconds(),
			"code", string(appErr.Code),
		), err))
		var zero T
		return zero, appErr
	}
	call.End(ctx, nil)
	return v, nil
}

func (s *Service) unsupported(port string) error {
	return errors.UnsupportedOperation(s.adapter.Name(), port)
}

func (s *Service) payments() (PaymentPort, error) {
	if p := s.adapter.Payments(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("payments")
}

func (s *Service) refunds() (RefundPort, error) {
	if p := s.adapter.Refunds(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("refunds")
}

func (s *Service) subscriptions() (SubscriptionPort, error) {
	if p := s.adapter.Subscriptions(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("subscriptions")
}

func (s *Service) checkout() (CheckoutPort, error) {
	if p := s.adapter.Checkout(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("checkout")
}

func (s *Service) customers() (CustomerPort, error) {
	if p := s.adapter.Customers(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("customers")
}

func (s *Service) providerSpecific() (ProviderSpecificPort, error) {
	if p := s.adapter.ProviderSpecific(); p != nil {
		return p, nil
	}
	return nil, s.unsupported("provider_specific")
}

// --- Payments ---

// CreatePayment validates and creates a payment. An empty IdempotencyKey is
// filled before the first attempt, so retries reuse the same key.
func (s *Service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	port, err := s.payments()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCreatePayment(s.Provider(), req); err != nil {
		return nil, err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	s.log.WithContext(ctx).Info("creating payment", logger.Fields(
		logger.FieldProvider, s.Provider(),
		"amount", req.Amount.String(),
		"idempotency_key", req.IdempotencyKey,
	))
	return run(ctx, s, OperationPayment, "create_payment", func(ctx context.Context) (*PaymentResponse, error) {
		return port.CreatePayment(ctx, req)
	})
}

// GetPayment returns a payment by ID.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	port, err := s.payments()
	if err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "payment_id: is required")
	}
	return run(ctx, s, OperationPayment, "get_payment", func(ctx context.Context) (*PaymentResponse, error) {
		return port.GetPayment(ctx, paymentID)
	})
}

// ConfirmPayment confirms a payment that requires action.
func (s *Service) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*PaymentResponse, error) {
	port, err := s.payments()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationPayment, "confirm_payment", func(ctx context.Context) (*PaymentResponse, error) {
		return port.ConfirmPayment(ctx, req)
	})
}

// CapturePayment captures an authorized payment in full or in part.
func (s *Service) CapturePayment(ctx context.Context, req CapturePaymentRequest) (*PaymentResponse, error) {
	port, err := s.payments()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCapture(s.Provider(), req); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("capturing payment", logger.Fields(
		logger.FieldProvider, s.Provider(),
		logger.FieldPaymentID, req.PaymentID,
	))
	return run(ctx, s, OperationPayment, "capture_payment", func(ctx context.Context) (*PaymentResponse, error) {
		return port.CapturePayment(ctx, req)
	})
}

// CancelPayment cancels a payment that has not been captured.
func (s *Service) CancelPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	port, err := s.payments()
	if err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "payment_id: is required")
	}
	s.log.WithContext(ctx).Info("cancelling payment", logger.Fields(
		logger.FieldProvider, s.Provider(),
		logger.FieldPaymentID, paymentID,
	))
	return run(ctx, s, OperationPayment, "cancel_payment", func(ctx context.Context) (*PaymentResponse, error) {
		return port.CancelPayment(ctx, paymentID)
	})
}

// --- Refunds ---

// CreateRefund refunds a payment in full or in part.
func (s *Service) CreateRefund(ctx context.Context, req CreateRefundRequest) (*RefundResponse, error) {
	port, err := s.refunds()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRefund(s.Provider(), req); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("creating refund", logger.Fields(
		logger.FieldProvider, s.Provider(),
		logger.FieldPaymentID, req.PaymentID,
	))
	return run(ctx, s, OperationRefund, "create_refund", func(ctx context.Context) (*RefundResponse, error) {
		return port.CreateRefund(ctx, req)
	})
}

// GetRefund returns a refund by ID.
func (s *Service) GetRefund(ctx context.Context, refundID string) (*RefundResponse, error) {
	port, err := s.refunds()
	if err != nil {
		return nil, err
	}
	if refundID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "refund_id: is required")
	}
	return run(ctx, s, OperationRefund, "get_refund", func(ctx context.Context) (*RefundResponse, error) {
		return port.GetRefund(ctx, refundID)
	})
}

// --- Subscriptions ---

// CreateSubscription subscribes a customer to a pricing plan.
func (s *Service) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	port, err := s.subscriptions()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("creating subscription", logger.Fields(
		logger.FieldProvider, s.Provider(),
		"customer_id", req.CustomerID,
		"plan_id", req.PlanID,
	))
	return run(ctx, s, OperationSubscription, "create_subscription", func(ctx context.Context) (*SubscriptionResponse, error) {
		return port.CreateSubscription(ctx, req)
	})
}

// GetSubscription returns a subscription by ID.
func (s *Service) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error) {
	port, err := s.subscriptions()
	if err != nil {
		return nil, err
	}
	if subscriptionID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "subscription_id: is required")
	}
	return run(ctx, s, OperationSubscription, "get_subscription", func(ctx context.Context) (*SubscriptionResponse, error) {
		return port.GetSubscription(ctx, subscriptionID)
	})
}

// CancelSubscription cancels a subscription now or at the period end.
func (s *Service) CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*SubscriptionResponse, error) {
	port, err := s.subscriptions()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("cancelling subscription", logger.Fields(
		logger.FieldProvider, s.Provider(),
		"subscription_id", req.SubscriptionID,
		"immediately", req.Immediately,
	))
	return run(ctx, s, OperationSubscription, "cancel_subscription", func(ctx context.Context) (*SubscriptionResponse, error) {
		return port.CancelSubscription(ctx, req)
	})
}

// --- Checkout ---

// CreateCheckoutSession creates a hosted checkout session.
func (s *Service) CreateCheckoutSession(ctx context.Context, req CreateCheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	port, err := s.checkout()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCheckoutSession(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCheckout, "create_checkout_session", func(ctx context.Context) (*CheckoutSessionResponse, error) {
		return port.CreateCheckoutSession(ctx, req)
	})
}

// GetCheckoutSession returns a checkout session by ID.
func (s *Service) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionResponse, error) {
	port, err := s.checkout()
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "session_id: is required")
	}
	return run(ctx, s, OperationCheckout, "get_checkout_session", func(ctx context.Context) (*CheckoutSessionResponse, error) {
		return port.GetCheckoutSession(ctx, sessionID)
	})
}

// CreatePaymentIntent creates a payment intent for client-side confirmation.
func (s *Service) CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	port, err := s.checkout()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePaymentIntent(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCheckout, "create_payment_intent", func(ctx context.Context) (*PaymentIntentResponse, error) {
		return port.CreatePaymentIntent(ctx, req)
	})
}

// GetPaymentIntent returns a payment intent by ID.
func (s *Service) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntentResponse, error) {
	port, err := s.checkout()
	if err != nil {
		return nil, err
	}
	if intentID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "intent_id: is required")
	}
	return run(ctx, s, OperationCheckout, "get_payment_intent", func(ctx context.Context) (*PaymentIntentResponse, error) {
		return port.GetPaymentIntent(ctx, intentID)
	})
}

// UpdatePaymentIntent changes an unconfirmed payment intent.
func (s *Service) UpdatePaymentIntent(ctx context.Context, req UpdatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	port, err := s.checkout()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCheckout, "update_payment_intent", func(ctx context.Context) (*PaymentIntentResponse, error) {
		return port.UpdatePaymentIntent(ctx, req)
	})
}

// --- Customers ---

// CreateCustomer stores a customer with the provider.
func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	port, err := s.customers()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCustomer, "create_customer", func(ctx context.Context) (*CustomerResponse, error) {
		return port.CreateCustomer(ctx, req)
	})
}

// GetCustomer returns a customer by ID.
func (s *Service) GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error) {
	port, err := s.customers()
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "customer_id: is required")
	}
	return run(ctx, s, OperationCustomer, "get_customer", func(ctx context.Context) (*CustomerResponse, error) {
		return port.GetCustomer(ctx, customerID)
	})
}

// UpdateCustomer changes a customer's details.
func (s *Service) UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) (*CustomerResponse, error) {
	port, err := s.customers()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCustomer, "update_customer", func(ctx context.Context) (*CustomerResponse, error) {
		return port.UpdateCustomer(ctx, req)
	})
}

// DeleteCustomer removes a customer.
func (s *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	port, err := s.customers()
	if err != nil {
		return err
	}
	if customerID == "" {
		return errors.PaymentValidation(s.Provider(), "customer_id: is required")
	}
	_, err = run(ctx, s, OperationCustomer, "delete_customer", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, port.DeleteCustomer(ctx, customerID)
	})
	return err
}

// AttachPaymentMethod attaches a payment method to a customer.
func (s *Service) AttachPaymentMethod(ctx context.Context, req AttachPaymentMethodRequest) (*PaymentMethodResponse, error) {
	port, err := s.customers()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	return run(ctx, s, OperationCustomer, "attach_payment_method", func(ctx context.Context) (*PaymentMethodResponse, error) {
		return port.AttachPaymentMethod(ctx, req)
	})
}

// ListPaymentMethods returns the payment methods attached to a customer.
func (s *Service) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethodResponse, error) {
	port, err := s.customers()
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, errors.PaymentValidation(s.Provider(), "customer_id: is required")
	}
	return run(ctx, s, OperationCustomer, "list_payment_methods", func(ctx context.Context) ([]PaymentMethodResponse, error) {
		return port.ListPaymentMethods(ctx, customerID)
	})
}

// DetachPaymentMethod detaches a payment method from a customer.
func (s *Service) DetachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	port, err := s.customers()
	if err != nil {
		return err
	}
	if customerID == "" || paymentMethodID == "" {
		return errors.PaymentValidation(s.Provider(), "customer_id and payment_method_id are required")
	}
	_, err = run(ctx, s, OperationCustomer, "detach_payment_method", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, port.DetachPaymentMethod(ctx, customerID, paymentMethodID)
	})
	return err
}

// --- Provider-specific operations ---

// ExecuteOperation runs a provider-specific operation. Unknown operations
// fail with UNSUPPORTED_OPERATION without reaching the executor.
func (s *Service) ExecuteOperation(ctx context.Context, req ProviderOperationRequest) (*ProviderOperationResponse, error) {
	port, err := s.providerSpecific()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(s.Provider(), req); err != nil {
		return nil, err
	}
	if !port.SupportsOperation(req.OperationName) {
		return nil, errors.UnsupportedOperation(s.Provider(), req.OperationName)
	}
	return run(ctx, s, OperationProviderSpecific, req.OperationName, func(ctx context.Context) (*ProviderOperationResponse, error) {
		return port.ExecuteOperation(ctx, req.OperationName, req)
	})
}

// SupportedOperations lists the provider-specific operations, or nil when
// the adapter has none.
func (s *Service) SupportedOperations() []string {
	port, err := s.providerSpecific()
	if err != nil {
		return nil
	}
	return port.SupportedOperations()
}

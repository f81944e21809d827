package psp

import (
	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/validation"
)

// PaymentValidator checks requests before they reach a provider. Struct tags
// are checked first, then the business limits below.
type PaymentValidator struct {
	// SupportedCurrencies restricts currencies. Empty accepts any ISO 4217 code.
	SupportedCurrencies []string
	// SupportedMethods restricts payment method types. Empty accepts all.
	SupportedMethods []PaymentMethodType
	// MinAmount and MaxAmount bound payment amounts. A zero MaxAmount is open.
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// NewPaymentValidator creates a validator accepting currencies. The minimum
// amount is 0.01 and the maximum is open.
func NewPaymentValidator(currencies []string) *PaymentValidator {
	return &PaymentValidator{
		SupportedCurrencies: currencies,
		MinAmount:           decimal.New(1, -2),
	}
}

// ValidateCreatePayment validates a payment creation request.
func (v *PaymentValidator) ValidateCreatePayment(provider string, req CreatePaymentRequest) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	check := validation.New()
	v.money(check, "amount", req.Amount)
	if req.PaymentMethodType != "" && len(v.SupportedMethods) > 0 {
		allowed := make([]string, len(v.SupportedMethods))
		for i, m := range v.SupportedMethods {
			allowed[i] = string(m)
		}
		check.OneOf("payment_method_type", string(req.PaymentMethodType), allowed)
	}
	check.Custom(req.CustomerID != "" || req.CustomerInfo != nil || req.PaymentMethodID != "",
		"customer_id", "customer_id, customer_info or payment_method_id is required")
	return v.result(provider, check)
}

// ValidateCapture validates a capture request. A partial capture amount must
// satisfy the same limits as a payment.
func (v *PaymentValidator) ValidateCapture(provider string, req CapturePaymentRequest) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	check := validation.New()
	if req.Amount != nil {
		v.money(check, "amount", *req.Amount)
	}
	return v.result(provider, check)
}

// ValidateRefund validates a refund request.
func (v *PaymentValidator) ValidateRefund(provider string, req CreateRefundRequest) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	check := validation.New()
	if req.Amount != nil {
		check.PositiveAmount("amount.amount", req.Amount.Amount).
			Currency("amount.currency", req.Amount.Currency, v.SupportedCurrencies)
	}
	return v.result(provider, check)
}

// ValidatePaymentIntent validates a payment intent creation request.
func (v *PaymentValidator) ValidatePaymentIntent(provider string, req CreatePaymentIntentRequest) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	check := validation.New()
	v.money(check, "amount", req.Amount)
	return v.result(provider, check)
}

// ValidateCheckoutSession validates a checkout session request. Payment mode
// needs an amount or line items; subscription mode needs a plan.
func (v *PaymentValidator) ValidateCheckoutSession(provider string, req CreateCheckoutSessionRequest) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	check := validation.New()
	switch req.Mode {
	case CheckoutModePayment:
		check.Custom(req.Amount != nil || len(req.LineItems) > 0, "amount", "amount or line_items is required in PAYMENT mode")
	case CheckoutModeSubscription:
		check.Custom(req.SubscriptionPlanID != "", "subscription_plan_id", "is required in SUBSCRIPTION mode")
	}
	if req.Amount != nil {
		v.money(check, "amount", *req.Amount)
	}
	return v.result(provider, check)
}

// Validate checks the struct tags of any other request.
func (v *PaymentValidator) Validate(provider string, req any) error {
	if err := validation.Validate(req); err != nil {
		return asPaymentValidation(provider, err)
	}
	return nil
}

func (v *PaymentValidator) money(check *validation.Validator, field string, m Money) {
	check.Currency(field+".currency", m.Currency, v.SupportedCurrencies).
		PositiveAmount(field+".amount", m.Amount)
	if check.HasErrors() {
		return
	}
	check.AmountRange(field+".amount", m.Amount, v.MinAmount, v.MaxAmount)
}

func (v *PaymentValidator) result(provider string, check *validation.Validator) error {
	if appErr := check.Validate(); appErr != nil {
		return asPaymentValidation(provider, appErr)
	}
	return nil
}

// asPaymentValidation re-codes a validation AppError as PAYMENT_VALIDATION,
// keeping its message and field details.
func asPaymentValidation(provider string, err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return errors.PaymentValidation(provider, err.Error())
	}
	return errors.PaymentValidation(provider, appErr.Message).WithDetails(appErr.Details)
}

package psp

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
)

func TestPaymentValidator_CreatePayment(t *testing.T) {
	v := NewPaymentValidator([]string{"EUR", "USD"})
	v.MaxAmount = decimal.NewFromInt(10000)
	v.SupportedMethods = []PaymentMethodType{PaymentMethodCard, PaymentMethodSEPADebit}

	tests := []struct {
		name   string
		mutate func(*CreatePaymentRequest)
		want   string
	}{
		{"valid", func(*CreatePaymentRequest) {}, ""},
		{"zero amount", func(r *CreatePaymentRequest) { r.Amount = MustMoney("0", "EUR") }, "amount"},
		{"below minimum", func(r *CreatePaymentRequest) { r.Amount = MustMoney("0.001", "EUR") }, "must be at least 0.01"},
		{"above maximum", func(r *CreatePaymentRequest) { r.Amount = MustMoney("10000.01", "EUR") }, "must be 10000 or less"},
		{"unsupported currency", func(r *CreatePaymentRequest) { r.Amount = MustMoney("10", "GBP") }, "currency GBP is not supported"},
		{"unknown currency", func(r *CreatePaymentRequest) { r.Amount = MustMoney("10", "XXY") }, "currency"},
		{"unsupported method", func(r *CreatePaymentRequest) { r.PaymentMethodType = PaymentMethodKlarna }, "payment_method_type"},
		{"no payer", func(r *CreatePaymentRequest) { r.PaymentMethodID = "" }, "customer_id"},
		{"bad return url", func(r *CreatePaymentRequest) { r.ReturnURL = "not a url" }, "return_url"},
		{"long descriptor", func(r *CreatePaymentRequest) { r.StatementDescriptor = strings.Repeat("x", 23) }, "statement_descriptor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPayment()
			tt.mutate(&req)
			err := v.ValidateCreatePayment("stripe", req)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodePaymentValidation {
				t.Fatalf("expected PAYMENT_VALIDATION, got %v", err)
			}
			if !strings.Contains(appErr.Message, tt.want) {
				t.Errorf("message %q does not mention %q", appErr.Message, tt.want)
			}
			if appErr.Provider() != "stripe" {
				t.Errorf("Provider() = %q", appErr.Provider())
			}
		})
	}
}

func TestPaymentValidator_Capture(t *testing.T) {
	v := NewPaymentValidator(nil)
	if err := v.ValidateCapture("stripe", CapturePaymentRequest{PaymentID: "pay_1"}); err != nil {
		t.Errorf("full capture rejected: %v", err)
	}
	neg := MustMoney("-1", "EUR")
	if err := v.ValidateCapture("stripe", CapturePaymentRequest{PaymentID: "pay_1", Amount: &neg}); err == nil {
		t.Error("expected negative capture amount to fail")
	}
	if err := v.ValidateCapture("stripe", CapturePaymentRequest{}); err == nil {
		t.Error("expected missing payment_id to fail")
	}
}

func TestPaymentValidator_CheckoutSession(t *testing.T) {
	v := NewPaymentValidator(nil)
	base := CreateCheckoutSessionRequest{
		Mode:       CheckoutModePayment,
		SuccessURL: "https://shop.example/ok",
		CancelURL:  "https://shop.example/cancel",
	}
	if err := v.ValidateCheckoutSession("stripe", base); err == nil {
		t.Error("payment mode without amount or items should fail")
	}

	amount := MustMoney("20", "EUR")
	withAmount := base
	withAmount.Amount = &amount
	if err := v.ValidateCheckoutSession("stripe", withAmount); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	sub := base
	sub.Mode = CheckoutModeSubscription
	if err := v.ValidateCheckoutSession("stripe", sub); err == nil {
		t.Error("subscription mode without plan should fail")
	}
	sub.SubscriptionPlanID = "plan_basic"
	if err := v.ValidateCheckoutSession("stripe", sub); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

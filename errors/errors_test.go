package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("payment provider"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"Timeout", Timeout("CreatePayment"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"Canceled", Canceled("CreatePayment"), ErrCodeCanceled, StatusClientClosedRequest, false},
		{"NotFound", NotFound("payment", "pay_1"), ErrCodeNotFound, http.StatusNotFound, false},
		{"Conflict", Conflict("payment already captured"), ErrCodeConflict, http.StatusConflict, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
		{"PaymentFailed", PaymentFailed("stripe", "card declined"), ErrCodePaymentFailed, http.StatusUnprocessableEntity, false},
		{"PaymentNotFound", PaymentNotFound("stripe", "pay_1"), ErrCodePaymentNotFound, http.StatusNotFound, false},
		{"PaymentValidation", PaymentValidation("stripe", "amount must be positive"), ErrCodePaymentValidation, http.StatusBadRequest, false},
		{"UnsupportedOperation", UnsupportedOperation("adyen", "payout"), ErrCodeUnsupportedOperation, http.StatusNotImplemented, false},
		{"ProviderError", ProviderError("adyen", nil), ErrCodeProviderError, http.StatusBadGateway, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code || tc.err.Kind() != string(tc.code) {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.IsRetryable() != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("payment", "pay_1")
	if err.Details["resource"] != "payment" || err.Details["id"] != "pay_1" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if _, ok := NotFound("payment", "").Details["id"]; ok {
		t.Error("expected no id for an empty id")
	}
	if s := err.Error(); !strings.Contains(s, "NOT_FOUND") || !strings.Contains(s, "not found") {
		t.Errorf("Error() = %q", s)
	}
}

func TestAppError_Cause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ProviderError("stripe", nil).WithCause(cause)
	if err.Unwrap() != cause || !stderrors.Is(err, cause) {
		t.Error("expected the cause in the chain")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Error() should contain the cause, got %q", err.Error())
	}
	if NotFound("payment", "").Unwrap() != nil {
		t.Error("Unwrap should return nil without a cause")
	}
}

func TestAppError_Details(t *testing.T) {
	err := NotFound("payment", "pay_1").WithDetails(map[string]any{"currency": "EUR"})
	err.WithDetail("currency", "USD").WithDetail("reason", "timeout")
	if err.Details["resource"] != "payment" || err.Details["currency"] != "USD" || err.Details["reason"] != "timeout" {
		t.Errorf("unexpected details: %v", err.Details)
	}

	if (&AppError{}).WithDetails(nil).Details == nil {
		t.Error("expected Details to be initialized")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := NotFound("payment", "pay_42").WithCause(fmt.Errorf("sandbox: no such payment"))
	resp := err.ToResponse("req-7")
	if resp.Error.Code != ErrCodeNotFound || resp.Error.Retryable {
		t.Errorf("unexpected body: %+v", resp.Error)
	}
	if resp.Error.RequestID != "req-7" || resp.Error.Details["resource"] != "payment" {
		t.Errorf("unexpected request id or details: %+v", resp.Error)
	}

	resp.Error.Details["resource"] = "changed"
	if err.Details["resource"] != "payment" {
		t.Error("ToResponse must copy details")
	}

	body, _ := json.Marshal(Internal(fmt.Errorf("db password wrong")).ToResponse(""))
	if strings.Contains(string(body), "password") || strings.Contains(string(body), "request_id") {
		t.Errorf("response leaks the cause or an empty request id: %s", body)
	}
}

func TestAsAppErrorAndWrap(t *testing.T) {
	declined := PaymentFailed("stripe", "declined")
	wrapped := fmt.Errorf("attempt 2: %w", declined)

	if got, ok := AsAppError(wrapped); !ok || got != declined {
		t.Errorf("AsAppError() = %v, %v", got, ok)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected false for a plain error")
	}

	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrap(wrapped) != declined {
		t.Error("Wrap should return the AppError in the chain")
	}
	plain := fmt.Errorf("socket closed")
	if got := Wrap(plain); got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("Wrap(plain) = %+v", got)
	}
}

func TestAppError_ProviderDetails(t *testing.T) {
	err := PaymentFailed("stripe", "card declined").WithProviderCode("card_declined")
	if err.Provider() != "stripe" {
		t.Errorf("expected provider stripe, got %q", err.Provider())
	}
	if err.Details["provider_code"] != "card_declined" {
		t.Errorf("expected provider_code=card_declined, got %v", err.Details["provider_code"])
	}
	if !strings.Contains(err.Message, "card declined") {
		t.Errorf("expected reason in message, got %q", err.Message)
	}

	plain := Internal(nil).WithProviderCode("")
	if plain.Provider() != "" || plain.Details != nil {
		t.Errorf("expected no provider details, got %v", plain.Details)
	}
}

package errors

import (
	"fmt"
	"net/http"
)

// Every provider error carries the provider name in Details["provider"] and,
// when the provider returned one, its own error code in
// Details["provider_code"].

// PaymentFailed creates a new AppError for a payment the provider declined
// or could not complete.
func PaymentFailed(provider, reason string) *AppError {
	return &AppError{
		Code: ErrCodePaymentFailed, Message: fmt.Sprintf("Payment failed: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"provider": provider},
	}
}

// PaymentNotFound creates a new AppError for a payment unknown to the provider.
func PaymentNotFound(provider, paymentID string) *AppError {
	return &AppError{
		Code: ErrCodePaymentNotFound, Message: fmt.Sprintf("Payment %s was not found.", paymentID),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"provider": provider, "payment_id": paymentID},
	}
}

// PaymentValidation creates a new AppError for a request that failed
// validation before it was sent to the provider.
func PaymentValidation(provider, message string) *AppError {
	return &AppError{
		Code: ErrCodePaymentValidation, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"provider": provider},
	}
}

// UnsupportedOperation creates a new AppError for an operation the provider
// does not offer.
func UnsupportedOperation(provider, operation string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedOperation, Message: fmt.Sprintf("Operation %s is not supported by %s.", operation, provider),
		HTTPStatus: http.StatusNotImplemented, Retryable: false,
		Details: map[string]any{"provider": provider, "operation": operation},
	}
}

// ProviderError creates a new AppError for an unclassified provider failure.
func ProviderError(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProviderError, Message: fmt.Sprintf("The payment provider %s returned an error.", provider),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// WithProviderCode records the provider's own error code and returns the
// receiver.
func (e *AppError) WithProviderCode(code string) *AppError {
	if code == "" {
		return e
	}
	return e.WithDetail("provider_code", code)
}

// Provider returns the provider name recorded on the error, if any.
func (e *AppError) Provider() string {
	p, _ := e.Details["provider"].(string)
	return p
}

package errors

// ErrorCode is the machine-readable code sent to clients and used as the
// error kind in metrics.
type ErrorCode string

// Availability. Callers may retry these.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Request outcome.
const (
	// ErrCodeCanceled means the caller went away before a result was ready.
	ErrCodeCanceled     ErrorCode = "CANCELED"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Payment providers.
const (
	// ErrCodePaymentFailed means the provider declined or could not complete
	// a payment.
	ErrCodePaymentFailed        ErrorCode = "PAYMENT_FAILED"
	ErrCodePaymentNotFound      ErrorCode = "PAYMENT_NOT_FOUND"
	// ErrCodePaymentValidation means the request was rejected before it
	// reached the provider.
	ErrCodePaymentValidation    ErrorCode = "PAYMENT_VALIDATION"
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	// ErrCodeProviderError is an unclassified provider failure.
	ErrCodeProviderError        ErrorCode = "PSP_ERROR"
)

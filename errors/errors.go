package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
)

// StatusClientClosedRequest is the non-standard status for a request the
// client abandoned before a response was written.
const StatusClientClosedRequest = 499

// AppError is the error every layer of pspkit returns to its caller. Code and
// Message go to the client; Cause stays on the server.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Kind returns the error code. It names the error in metric tags.
func (e *AppError) Kind() string { return string(e.Code) }

// IsRetryable reports whether the failed operation may be retried.
func (e *AppError) IsRetryable() bool { return e.Retryable }

// WithCause sets the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrap returns the AppError in err's chain, or an internal error caused by
// err when there is none.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

func newError(code ErrorCode, status int, retryable bool, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Retryable: retryable}
}

// ServiceUnavailable reports that service, such as the payment provider, cannot
// take calls right now.
func ServiceUnavailable(service string) *AppError {
	return newError(ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service)).
		WithDetail("service", service)
}

// Timeout reports that operation ran out of time.
func Timeout(operation string) *AppError {
	return newError(ErrCodeTimeout, http.StatusGatewayTimeout, true,
		"The request took too long. Please try again.").
		WithDetail("operation", operation)
}

// Canceled reports that the caller of operation went away.
func Canceled(operation string) *AppError {
	return newError(ErrCodeCanceled, StatusClientClosedRequest, false, "The request was canceled.").
		WithDetail("operation", operation)
}

// RateLimited reports that a rate limiter refused the call.
func RateLimited() *AppError {
	return newError(ErrCodeRateLimited, http.StatusTooManyRequests, true,
		"Too many requests. Please wait a moment and try again.")
}

// NotFound reports a missing resource. An empty id is left out of Details.
func NotFound(resource, id string) *AppError {
	err := newError(ErrCodeNotFound, http.StatusNotFound, false,
		fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

// Conflict reports a request that clashes with the resource's current state.
func Conflict(reason string) *AppError {
	return newError(ErrCodeConflict, http.StatusConflict, false, reason)
}

// Validation reports malformed input.
func Validation(message string) *AppError {
	return newError(ErrCodeInvalidInput, http.StatusBadRequest, false, message)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return newError(ErrCodeInternal, http.StatusInternalServerError, false,
		"An unexpected error occurred. Please try again or contact support.").
		WithCause(cause)
}

package psp

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/resilience"
)

// mapError converts a failure of a provider call into an AppError. AppErrors
// raised by the adapter pass through unchanged.
func mapError(provider, operation string, err error) *errors.AppError {
	if err == nil {
		return nil
	}

	var exhausted *resilience.RetryExhaustedError
	if stderrors.As(err, &exhausted) && exhausted.Last != nil {
		err = exhausted.Last
	}

	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ServiceUnavailable(provider).
			WithDetail("provider", provider).
			WithDetail("reason", resilience.KindCircuitOpen).
			WithCause(err)
	case stderrors.Is(err, resilience.ErrBulkheadFull):
		return errors.ServiceUnavailable(provider).
			WithDetail("provider", provider).
			WithDetail("reason", resilience.KindBulkheadFull).
			WithCause(err)
	case stderrors.Is(err, resilience.ErrRateLimited):
		return errors.RateLimited().WithDetail("provider", provider).WithCause(err)
	case stderrors.Is(err, resilience.ErrTimeout),
		stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(provider+" "+operation).WithDetail("provider", provider).WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return errors.Canceled(provider+" "+operation).WithDetail("provider", provider).WithCause(err)
	}
	return errors.ProviderError(provider, err)
}

// Package errors defines AppError, the structured error pspkit returns from
// every payment operation.
//
// An AppError carries a code for clients and metrics, the HTTP status the
// REST layer answers with, and whether a retry may succeed. Provider errors
// also record the provider name and the provider's own error code:
//
//	return errors.PaymentFailed("stripe", "card declined").WithProviderCode("card_declined")
//
// ToResponse renders the client body; the cause never leaves the server.
package errors

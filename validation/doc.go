// Package validation checks payment requests.
//
// Validate runs the go-playground/validator struct tags. Decimal amounts
// validate as numbers, and fields are reported by JSON path:
//
//	type Money struct {
//	    Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
//	    Currency string          `json:"currency" validate:"required,iso4217"`
//	}
//	err := validation.Validate(req)
//
// Validator collects business rules the tags cannot express:
//
//	check := validation.New()
//	check.Currency("amount.currency", m.Currency, supported).
//	    AmountRange("amount.amount", m.Amount, minAmount, maxAmount)
//	if appErr := check.Validate(); appErr != nil {
//	    return appErr
//	}
package validation

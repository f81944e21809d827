package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// FieldError is one failed check. Field is the JSON path of the value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects the business rule failures of one request. Checks
// chain, and Validate turns the collected failures into a single error.
type Validator struct {
	errors []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the failures in the order they were recorded.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns nil when every check passed, otherwise an INVALID_INPUT error
// listing each failure in its message and under Details["fields"].
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return fieldsError(v.errors)
}

func fieldsError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetails(map[string]any{"fields": fields})
}

// OneOf requires a non-empty value to be one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// PositiveAmount requires amount > 0.
func (v *Validator) PositiveAmount(field string, amount decimal.Decimal) *Validator {
	if !amount.IsPositive() {
		v.AddError(field, "must be greater than 0")
	}
	return v
}

// AmountRange requires minVal <= amount <= maxVal. A zero maxVal leaves the
// upper bound open.
func (v *Validator) AmountRange(field string, amount, minVal, maxVal decimal.Decimal) *Validator {
	if amount.LessThan(minVal) {
		v.AddError(field, fmt.Sprintf("must be at least %s", minVal))
		return v
	}
	if !maxVal.IsZero() && amount.GreaterThan(maxVal) {
		v.AddError(field, fmt.Sprintf("must be %s or less", maxVal))
	}
	return v
}

// Currency requires a three-letter upper-case code that, when supported is
// non-empty, is one of supported.
func (v *Validator) Currency(field, code string, supported []string) *Validator {
	if !currencyPattern.MatchString(code) {
		v.AddError(field, "must be a 3-letter ISO 4217 code")
		return v
	}
	if len(supported) > 0 && !slices.Contains(supported, code) {
		v.AddError(field, fmt.Sprintf("currency %s is not supported", code))
	}
	return v
}

// Custom records message for field unless condition holds.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

package psp

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in a currency. Amount is a decimal in major units
// (12.34 EUR, not 1234 cents) and marshals to JSON as a string.
type Money struct {
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency string          `json:"currency" validate:"required,iso4217"`
}

// NewMoney parses amount and returns Money in the upper-cased currency.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: strings.ToUpper(currency)}, nil
}

// MustMoney is NewMoney that panics on a malformed amount.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinorUnits converts an integer amount in the currency's smallest unit
// (cents) using exp decimal places.
func FromMinorUnits(units int64, currency string, exp int32) Money {
	return Money{Amount: decimal.New(units, -exp), Currency: strings.ToUpper(currency)}
}

// MinorUnits returns the amount in the currency's smallest unit, rounded
// half away from zero to exp decimal places.
func (m Money) MinorUnits(exp int32) int64 {
	return m.Amount.Shift(exp).Round(0).IntPart()
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// Add returns m + o. Both must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub returns m - o. Both must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Equal reports whether both the amounts and currencies are equal.
// 10 and 10.00 are equal.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("currency mismatch: %s and %s", m.Currency, o.Currency)
	}
	return nil
}

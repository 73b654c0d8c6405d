// Package money provides exact and tolerance-based comparison of
// monetary amounts. Comparisons are only meaningful between amounts in
// the same currency; cross-currency amounts never compare equal
// (conversion is out of scope).
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CentTolerance is one currency minor unit (0.01). Two amounts whose
// absolute difference is strictly below this are considered equal for
// matching purposes.
var CentTolerance = decimal.New(1, -2)

// Amount is a monetary value with its ISO 4217 currency code.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// New builds an Amount, normalizing the currency code to upper case.
func New(value decimal.Decimal, currency string) Amount {
	return Amount{Value: value, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// SameCurrency reports whether both amounts share a currency code.
func (a Amount) SameCurrency(b Amount) bool {
	return strings.EqualFold(a.Currency, b.Currency)
}

// Equal reports exact equality: same currency, same value.
func (a Amount) Equal(b Amount) bool {
	return a.SameCurrency(b) && a.Value.Equal(b.Value)
}

// WithinTolerance reports whether the absolute difference between the
// two amounts is strictly below tol. Cross-currency amounts are never
// within tolerance.
func (a Amount) WithinTolerance(b Amount, tol decimal.Decimal) bool {
	if !a.SameCurrency(b) {
		return false
	}
	return a.Value.Sub(b.Value).Abs().LessThan(tol)
}

// Abs returns the amount with a non-negative value.
func (a Amount) Abs() Amount {
	return Amount{Value: a.Value.Abs(), Currency: a.Currency}
}

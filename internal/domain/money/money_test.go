package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(s, currency string) Amount {
	return New(decimal.RequireFromString(s), currency)
}

func TestAmount_Equal(t *testing.T) {
	assert.True(t, amt("1000.00", "EUR").Equal(amt("1000.00", "EUR")))
	assert.True(t, amt("1000.00", "eur").Equal(amt("1000.00", "EUR")))
	assert.False(t, amt("1000.00", "EUR").Equal(amt("1000.01", "EUR")))
	assert.False(t, amt("1000.00", "EUR").Equal(amt("1000.00", "USD")))
}

func TestAmount_WithinTolerance(t *testing.T) {
	// Strictly below one cent matches
	assert.True(t, amt("100.00", "EUR").WithinTolerance(amt("100.009", "EUR"), CentTolerance))
	assert.True(t, amt("100.00", "EUR").WithinTolerance(amt("100.00", "EUR"), CentTolerance))

	// Exactly one cent does not
	assert.False(t, amt("100.00", "EUR").WithinTolerance(amt("100.01", "EUR"), CentTolerance))
	assert.False(t, amt("100.00", "EUR").WithinTolerance(amt("99.99", "EUR"), CentTolerance))
}

func TestAmount_WithinTolerance_CrossCurrency(t *testing.T) {
	// Identical values in different currencies never compare
	assert.False(t, amt("100.00", "EUR").WithinTolerance(amt("100.00", "USD"), CentTolerance))
}

func TestAmount_Abs(t *testing.T) {
	assert.True(t, amt("-42.50", "EUR").Abs().Equal(amt("42.50", "EUR")))
	assert.True(t, amt("42.50", "EUR").Abs().Equal(amt("42.50", "EUR")))
}

package cli

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement(t *testing.T) {
	t.Run("parses rows and skips header", func(t *testing.T) {
		// Arrange
		input := strings.Join([]string{
			"date,description,amount,currency",
			"2026-03-10,VIR INV-2026-001 ACME,1000.00,EUR",
			"2026-03-11,CARD PAYMENT SUPPLIES,-45.20,",
		}, "\n")
		accountID := uuid.New()

		// Act
		transactions, skipped, err := ParseStatement(strings.NewReader(input), accountID, "EUR")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, skipped) // header row
		require.Len(t, transactions, 2)

		assert.Equal(t, accountID, transactions[0].BankAccountID)
		assert.Equal(t, "VIR INV-2026-001 ACME", transactions[0].Description)
		assert.True(t, transactions[0].Amount.Equal(decimal.RequireFromString("1000.00")))
		assert.Equal(t, "EUR", transactions[0].Currency)

		// empty currency column falls back to the account currency
		assert.Equal(t, "EUR", transactions[1].Currency)
		assert.True(t, transactions[1].Amount.IsNegative())
	})

	t.Run("accepts slash dates", func(t *testing.T) {
		input := "10/03/2026,VIR ACME,500.00,USD\n"

		transactions, skipped, err := ParseStatement(strings.NewReader(input), uuid.New(), "EUR")

		require.NoError(t, err)
		assert.Equal(t, 0, skipped)
		require.Len(t, transactions, 1)
		assert.Equal(t, "USD", transactions[0].Currency)
		assert.Equal(t, 10, transactions[0].Date.Day())
	})

	t.Run("skips summary and malformed rows", func(t *testing.T) {
		input := strings.Join([]string{
			"Opening balance,,12000.00",
			"2026-03-10,VIR ACME,not-a-number",
			"2026-03-10,VIR ACME,100.00",
		}, "\n")

		transactions, skipped, err := ParseStatement(strings.NewReader(input), uuid.New(), "EUR")

		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		assert.Len(t, transactions, 1)
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		transactions, skipped, err := ParseStatement(strings.NewReader(""), uuid.New(), "EUR")

		require.NoError(t, err)
		assert.Equal(t, 0, skipped)
		assert.Empty(t, transactions)
	})
}

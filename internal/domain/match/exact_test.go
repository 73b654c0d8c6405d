package match

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlink/internal/domain/ledger"
)

func makeTransaction(amount, currency, description string) *ledger.Transaction {
	return &ledger.Transaction{
		ID:            uuid.New(),
		BankAccountID: uuid.New(),
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description:   description,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
	}
}

func makeInvoice(number, total, currency string, due time.Time) *ledger.Invoice {
	totalAmount := decimal.RequireFromString(total)
	return &ledger.Invoice{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		InvoiceNumber: number,
		ClientName:    "ACME Corp",
		Amount:        totalAmount,
		TotalAmount:   totalAmount,
		Currency:      currency,
		DueDate:       due,
		Status:        ledger.InvoicePending,
	}
}

func TestExactStrategy_AmountAndReference(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("1000.00", "EUR", "VIR INV-2026-001 ACME")
	invoice := makeInvoice("INV-2026-001", "1000.00", "EUR", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, invoice.ID, candidates[0].InvoiceID)
	assert.Equal(t, ledger.MatchExact, candidates[0].Method)
	assert.True(t, candidates[0].Score.Equal(decimal.RequireFromString("1.00")))
	assert.Contains(t, candidates[0].Reasoning, "INV-2026-001")
}

func TestExactStrategy_AmountOnly_DegradesToReference(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("1000.00", "EUR", "VIR ACME CORP")
	invoice := makeInvoice("INV-2026-001", "1000.00", "EUR", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, ledger.MatchReference, candidates[0].Method)
	assert.True(t, candidates[0].Score.Equal(decimal.RequireFromString("0.85")))
}

func TestExactStrategy_ReferenceIsCaseInsensitive(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("1000.00", "EUR", "vir inv-2026-001 acme")
	invoice := makeInvoice("INV-2026-001", "1000.00", "EUR", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, ledger.MatchExact, candidates[0].Method)
}

func TestExactStrategy_WithinOneCent(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("100.005", "EUR", "payment")
	invoice := makeInvoice("INV-1", "100.00", "EUR", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert - below one cent matches
	require.Len(t, candidates, 1)
}

func TestExactStrategy_OneCentOrMore_NoMatch(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("100.01", "EUR", "payment")
	invoice := makeInvoice("INV-1", "100.00", "EUR", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert - exactly one cent off is not a match
	assert.Empty(t, candidates)
}

func TestExactStrategy_DebitsMatchByAbsoluteAmount(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("-1000.00", "EUR", "VIR INV-2026-001")
	invoice := makeInvoice("INV-2026-001", "1000.00", "EUR", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, ledger.MatchExact, candidates[0].Method)
}

func TestExactStrategy_CrossCurrencyExcluded(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("1000.00", "EUR", "VIR INV-2026-001")
	invoice := makeInvoice("INV-2026-001", "1000.00", "USD", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{invoice})

	// Assert - same value, different currency: excluded
	assert.Empty(t, candidates)
}

func TestExactStrategy_AmountTies_AllEmitted(t *testing.T) {
	// Arrange
	strategy := NewExactStrategy()
	tx := makeTransaction("500.00", "EUR", "VIR ACME")
	a := makeInvoice("INV-1", "500.00", "EUR", time.Now())
	b := makeInvoice("INV-2", "500.00", "EUR", time.Now())
	c := makeInvoice("INV-3", "750.00", "EUR", time.Now())

	// Act
	candidates := strategy.Match(tx, []*ledger.Invoice{a, b, c})

	// Assert - both amount ties surface; ordering is the ranker's job
	require.Len(t, candidates, 2)
}

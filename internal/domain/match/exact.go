package match

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/domain/money"
)

var (
	scoreExact     = decimal.New(100, -2) // 1.00
	scoreReference = decimal.New(85, -2)  // 0.85
)

// ExactStrategy finds invoices whose total equals the transaction
// amount within the configured tolerance. When the invoice number also
// appears in the transaction description the candidate is an exact
// match (1.00); otherwise it degrades to a reference match (0.85).
type ExactStrategy struct {
	tolerance decimal.Decimal
}

// NewExactStrategy creates the strategy with the one-cent default
// tolerance.
func NewExactStrategy() *ExactStrategy {
	return &ExactStrategy{tolerance: money.CentTolerance}
}

// NewExactStrategyWithTolerance creates the strategy with a custom
// amount tolerance.
func NewExactStrategyWithTolerance(tolerance decimal.Decimal) *ExactStrategy {
	return &ExactStrategy{tolerance: tolerance}
}

// Match returns every invoice whose total matches the transaction
// amount. Ties on amount are all emitted; ordering is the ranker's job.
// Cross-currency invoices are excluded outright.
func (s *ExactStrategy) Match(tx *ledger.Transaction, invoices []*ledger.Invoice) []Candidate {
	txAmount := money.New(tx.Amount, tx.Currency).Abs()
	description := strings.ToLower(tx.Description)

	var candidates []Candidate
	for _, inv := range invoices {
		invAmount := money.New(inv.TotalAmount, inv.Currency)
		if !txAmount.WithinTolerance(invAmount, s.tolerance) {
			continue
		}

		c := Candidate{
			TransactionID:          tx.ID,
			InvoiceID:              inv.ID,
			InvoiceNumber:          inv.InvoiceNumber,
			InvoiceAmount:          inv.TotalAmount,
			InvoiceDueDate:         inv.DueDate,
			TransactionDescription: tx.Description,
			TransactionAmount:      tx.Amount,
		}

		if strings.Contains(description, strings.ToLower(inv.InvoiceNumber)) {
			c.Score = scoreExact
			c.Method = ledger.MatchExact
			c.Reasoning = fmt.Sprintf("amount matches (%s %s) and invoice number %s found in description",
				inv.TotalAmount.StringFixed(2), inv.Currency, inv.InvoiceNumber)
		} else {
			c.Score = scoreReference
			c.Method = ledger.MatchReference
			c.Reasoning = fmt.Sprintf("amount matches (%s %s)", inv.TotalAmount.StringFixed(2), inv.Currency)
		}

		candidates = append(candidates, c)
	}

	return candidates
}

package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
)

// FuzzyStrategy delegates to the semantic matcher capability. It is
// invoked only when the exact pass produced nothing.
//
// This strategy degrades silently: capability errors, timeouts, and
// malformed results contribute zero candidates and are logged, never
// propagated. A timed-out attempt is not retried; the result is
// advisory and a retry risks double billing on the external API.
type FuzzyStrategy struct {
	matcher SemanticMatcher
	timeout time.Duration
	logger  *slog.Logger
}

// DefaultMatcherTimeout bounds a single semantic matcher call.
const DefaultMatcherTimeout = 30 * time.Second

// NewFuzzyStrategy creates the strategy. A nil matcher disables the
// fuzzy pass entirely; timeout <= 0 falls back to the default.
func NewFuzzyStrategy(matcher SemanticMatcher, timeout time.Duration, logger *slog.Logger) *FuzzyStrategy {
	if timeout <= 0 {
		timeout = DefaultMatcherTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FuzzyStrategy{matcher: matcher, timeout: timeout, logger: logger}
}

// Match asks the capability for its best candidate and validates the
// answer against the invoices actually offered. At most one candidate
// is returned.
func (s *FuzzyStrategy) Match(ctx context.Context, tx *ledger.Transaction, invoices []*ledger.Invoice) []Candidate {
	if s.matcher == nil || len(invoices) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summaries := make([]InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		summaries = append(summaries, InvoiceSummary{
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    inv.ClientName,
			TotalAmount:   inv.TotalAmount,
			Currency:      inv.Currency,
			DueDate:       inv.DueDate,
		})
	}

	result, err := s.matcher.FindBestMatch(ctx, TransactionSummary{
		Description: tx.Description,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Date:        tx.Date,
	}, summaries)
	if err != nil {
		s.logger.Warn("semantic matcher unavailable, skipping fuzzy pass",
			"transaction_id", tx.ID, "error", err)
		return nil
	}
	if result == nil {
		return nil
	}

	if result.Score.LessThan(decimal.Zero) || result.Score.GreaterThan(decimal.NewFromInt(1)) {
		s.logger.Warn("semantic matcher returned out-of-range score, discarding",
			"transaction_id", tx.ID, "score", result.Score)
		return nil
	}

	// Never trust capability output blindly: the named invoice must be
	// one of the invoices we offered.
	matched := findByNumber(invoices, result.InvoiceNumber)
	if matched == nil {
		s.logger.Warn("semantic matcher named an unknown invoice, discarding",
			"transaction_id", tx.ID, "invoice_number", result.InvoiceNumber)
		return nil
	}

	return []Candidate{{
		TransactionID:          tx.ID,
		InvoiceID:              matched.ID,
		InvoiceNumber:          matched.InvoiceNumber,
		InvoiceAmount:          matched.TotalAmount,
		InvoiceDueDate:         matched.DueDate,
		TransactionDescription: tx.Description,
		TransactionAmount:      tx.Amount,
		Score:                  result.Score,
		Method:                 ledger.MatchFuzzyAI,
		Reasoning:              result.Reasoning,
	}}
}

func findByNumber(invoices []*ledger.Invoice, number string) *ledger.Invoice {
	for _, inv := range invoices {
		if inv.InvoiceNumber == number {
			return inv
		}
	}
	return nil
}

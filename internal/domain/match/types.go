// Package match implements the reconciliation matching strategies: the
// amount-based exact/reference pass, the semantic fallback, and the
// ranker that merges their candidates into ordered suggestions.
//
// Strategies are read-only over transactions and invoices; they never
// mutate state or talk to storage.
package match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
)

// Candidate is a proposed link between one transaction and one invoice,
// with the evidence the proposal is based on.
type Candidate struct {
	TransactionID          uuid.UUID          `json:"transaction_id"`
	InvoiceID              uuid.UUID          `json:"invoice_id"`
	InvoiceNumber          string             `json:"invoice_number"`
	InvoiceAmount          decimal.Decimal    `json:"invoice_amount"`
	InvoiceDueDate         time.Time          `json:"invoice_due_date"`
	TransactionDescription string             `json:"transaction_description"`
	TransactionAmount      decimal.Decimal    `json:"transaction_amount"`
	Score                  decimal.Decimal    `json:"match_score"`
	Method                 ledger.MatchMethod `json:"match_method"`
	Reasoning              string             `json:"reasoning"`
}

// TransactionSummary is the transaction view handed to the semantic
// matcher. It carries no identifiers the capability could misuse.
type TransactionSummary struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
}

// InvoiceSummary is the per-invoice view handed to the semantic matcher.
type InvoiceSummary struct {
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	DueDate       time.Time       `json:"due_date"`
}

// SemanticResult is the single best candidate returned by the semantic
// matcher. The invoice number is validated against the caller's
// candidate set before it is trusted; the capability's own method
// labelling is ignored and results are always stored as fuzzy_ai.
type SemanticResult struct {
	InvoiceNumber string
	Score         decimal.Decimal
	Reasoning     string
}

// SemanticMatcher is the injectable external matching capability.
// Implementations are expected to have non-trivial latency and must be
// swappable with a deterministic stub in tests. A nil result with a nil
// error means "no match".
type SemanticMatcher interface {
	FindBestMatch(ctx context.Context, tx TransactionSummary, invoices []InvoiceSummary) (*SemanticResult, error)
}

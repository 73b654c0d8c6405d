// Package ledger defines the core entities of the reconciliation engine:
// bank accounts, transactions, invoices, and the reconciliation records
// that link them.
//
// Matching and suggestion code treats these types as read-only; state
// transitions (reconciled flags, invoice payment) happen only through
// the reconcile service and the storage layer's atomic link operation.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchMethod identifies how a reconciliation match was established.
// It is a closed set; anything else is rejected at construction time.
type MatchMethod string

const (
	// MatchExact means the amount matched within one cent and the
	// invoice number was found in the transaction description.
	MatchExact MatchMethod = "exact"

	// MatchReference means the amount matched but the invoice number
	// was not found in the description.
	MatchReference MatchMethod = "reference"

	// MatchFuzzyAI means the match was proposed by the semantic matcher.
	MatchFuzzyAI MatchMethod = "fuzzy_ai"

	// MatchManual means a user linked the records by hand.
	MatchManual MatchMethod = "manual"
)

// Valid reports whether m is one of the known match methods.
func (m MatchMethod) Valid() bool {
	switch m {
	case MatchExact, MatchReference, MatchFuzzyAI, MatchManual:
		return true
	}
	return false
}

// Priority returns the tie-break rank of the method (lower is stronger).
// Used by the suggestion ranker when scores are equal.
func (m MatchMethod) Priority() int {
	switch m {
	case MatchExact:
		return 0
	case MatchReference:
		return 1
	case MatchFuzzyAI:
		return 2
	case MatchManual:
		return 3
	}
	return 4
}

// Validator identifies who confirmed a reconciliation.
type Validator string

const (
	ValidatorAI   Validator = "ai"
	ValidatorUser Validator = "user"
)

// Valid reports whether v is a known validator.
func (v Validator) Valid() bool {
	return v == ValidatorAI || v == ValidatorUser
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// BankAccount is a connected bank account owned by a user. Transactions
// belong to a user only through their bank account.
type BankAccount struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BankName  string    `json:"bank_name"`
	IBAN      string    `json:"iban,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is a bank transaction created by statement ingestion.
// Amount is signed: negative for debits, positive for credits.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	BankAccountID    uuid.UUID       `json:"bank_account_id"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	IsReconciled     bool            `json:"is_reconciled"`
	ReconciliationID *uuid.UUID      `json:"reconciliation_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Invoice is a customer invoice. TotalAmount is always derived from
// Amount + TaxAmount; use RecalculateTotal after any amount edit and
// never set it directly.
type Invoice struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	ClientName       string          `json:"client_name"`
	ClientEmail      string          `json:"client_email,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          time.Time       `json:"due_date"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	Status           InvoiceStatus   `json:"status"`
	IsReconciled     bool            `json:"is_reconciled"`
	ReconciliationID *uuid.UUID      `json:"reconciliation_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RecalculateTotal recomputes TotalAmount from Amount and TaxAmount.
func (i *Invoice) RecalculateTotal() {
	i.TotalAmount = i.Amount.Add(i.TaxAmount)
}

// Reconciliation links exactly one transaction to exactly one invoice.
// Records are immutable once created; corrections happen by
// un-reconciling at the storage layer.
type Reconciliation struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	MatchScore    decimal.Decimal `json:"match_score"`
	MatchMethod   MatchMethod     `json:"match_method"`
	ValidatedBy   Validator       `json:"validated_by"`
	Reasoning     string          `json:"reasoning,omitempty"`
	ValidatedAt   time.Time       `json:"validated_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

var (
	scoreMin = decimal.Zero
	scoreMax = decimal.NewFromInt(1)
)

// NewReconciliation builds a validated reconciliation record.
// The score must be in [0, 1], the method and validator must be known,
// and fuzzy matches must carry reasoning.
func NewReconciliation(
	userID, transactionID, invoiceID uuid.UUID,
	score decimal.Decimal,
	method MatchMethod,
	validatedBy Validator,
	reasoning string,
	now time.Time,
) (*Reconciliation, error) {
	if score.LessThan(scoreMin) || score.GreaterThan(scoreMax) {
		return nil, ErrScoreOutOfRange
	}
	if !method.Valid() {
		return nil, ErrInvalidMatchMethod
	}
	if !validatedBy.Valid() {
		return nil, ErrInvalidValidator
	}
	if method == MatchFuzzyAI && reasoning == "" {
		return nil, ErrReasoningRequired
	}

	return &Reconciliation{
		ID:            uuid.New(),
		UserID:        userID,
		TransactionID: transactionID,
		InvoiceID:     invoiceID,
		MatchScore:    score,
		MatchMethod:   method,
		ValidatedBy:   validatedBy,
		Reasoning:     reasoning,
		ValidatedAt:   now,
		CreatedAt:     now,
	}, nil
}

// Package storage is the persistence capability of the reconciliation
// engine. The SQLite implementation enforces the uniqueness invariants
// (one reconciliation per transaction, one per invoice) with unique
// indexes, so they hold even under concurrent writers.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/ledger"
)

// Repository defines the complete storage interface. Splitting it into
// sub-interfaces keeps call sites narrow and makes testing with the
// in-memory mock straightforward.
type Repository interface {
	BankAccountRepository
	TransactionRepository
	InvoiceRepository
	ReconciliationRepository
	Close() error
}

// BankAccountRepository handles bank account records.
type BankAccountRepository interface {
	SaveBankAccount(ctx context.Context, account *ledger.BankAccount) error

	// GetBankAccount returns nil, nil when the account does not exist.
	GetBankAccount(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error)
}

// TransactionRepository handles bank transaction records.
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, tx *ledger.Transaction) error

	// GetTransaction returns nil, nil when the transaction does not exist.
	GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)

	// ListTransactions returns the user's transactions, newest first.
	ListTransactions(ctx context.Context, userID uuid.UUID, filters TransactionFilters) ([]*ledger.Transaction, error)
}

// TransactionFilters narrows a transaction listing.
type TransactionFilters struct {
	OnlyUnreconciled bool
	Limit            int // 0 = default 50
	Offset           int
}

// InvoiceRepository handles invoice records.
type InvoiceRepository interface {
	SaveInvoice(ctx context.Context, invoice *ledger.Invoice) error
	UpdateInvoice(ctx context.Context, invoice *ledger.Invoice) error

	// GetInvoice returns nil, nil when the invoice does not exist.
	GetInvoice(ctx context.Context, id uuid.UUID) (*ledger.Invoice, error)

	// GetInvoiceByNumber returns nil, nil when the user has no invoice
	// with that number.
	GetInvoiceByNumber(ctx context.Context, userID uuid.UUID, number string) (*ledger.Invoice, error)

	// ListOpenInvoices returns the user's pending, unreconciled invoices
	// ordered by due date ascending, capped at limit.
	ListOpenInvoices(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Invoice, error)

	// ListInvoices returns the user's invoices, optionally filtered by
	// status, newest issue date first.
	ListInvoices(ctx context.Context, userID uuid.UUID, status ledger.InvoiceStatus) ([]*ledger.Invoice, error)

	// MarkOverdue flips past-due pending invoices to overdue and
	// returns how many changed.
	MarkOverdue(ctx context.Context, userID uuid.UUID, asOf time.Time) (int64, error)
}

// ReconciliationRepository handles reconciliation records.
type ReconciliationRepository interface {
	// CreateReconciliation atomically inserts the record, marks the
	// transaction reconciled, and marks the invoice reconciled and paid
	// (payment date = transaction date, day granularity). When another
	// writer already claimed either side it fails with
	// ledger.ErrTransactionReconciled or ledger.ErrInvoiceReconciled
	// and leaves no partial state behind.
	CreateReconciliation(ctx context.Context, rec *ledger.Reconciliation) error

	// GetReconciliation returns nil, nil when the record does not exist.
	GetReconciliation(ctx context.Context, id uuid.UUID) (*ledger.Reconciliation, error)

	// ListReconciliations returns the user's reconciliations, newest first.
	ListReconciliations(ctx context.Context, userID uuid.UUID) ([]*ledger.Reconciliation, error)

	// ReconciliationStats returns rollup counts for the user.
	ReconciliationStats(ctx context.Context, userID uuid.UUID) (*ReconciliationStats, error)
}

// ReconciliationStats contains raw rollup counts. Derived values such
// as the automation rate are computed by the reconcile service.
type ReconciliationStats struct {
	Total       int
	ByMethod    map[ledger.MatchMethod]int
	ByValidator map[ledger.Validator]int
}

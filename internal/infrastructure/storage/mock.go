package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for
// testing. A single mutex guards every operation, so the uniqueness
// check inside CreateReconciliation has the same one-winner semantics
// as the SQLite unique indexes.
type MockRepository struct {
	mu              sync.Mutex
	accounts        map[uuid.UUID]*ledger.BankAccount
	transactions    map[uuid.UUID]*ledger.Transaction
	invoices        map[uuid.UUID]*ledger.Invoice
	reconciliations map[uuid.UUID]*ledger.Reconciliation

	// Hooks for test assertions
	CreateReconciliationCalled bool
	LastReconciliation         *ledger.Reconciliation

	// Error injection for testing error paths
	GetTransactionErr       error
	GetInvoiceErr           error
	ListOpenInvoicesErr     error
	CreateReconciliationErr error
	StatsErr                error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		accounts:        make(map[uuid.UUID]*ledger.BankAccount),
		transactions:    make(map[uuid.UUID]*ledger.Transaction),
		invoices:        make(map[uuid.UUID]*ledger.Invoice),
		reconciliations: make(map[uuid.UUID]*ledger.Reconciliation),
	}
}

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) SaveBankAccount(_ context.Context, account *ledger.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockRepository) GetBankAccount(_ context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

func (m *MockRepository) SaveTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.ID] = &cp
	return nil
}

func (m *MockRepository) GetTransaction(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTransactionErr != nil {
		return nil, m.GetTransactionErr
	}
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (m *MockRepository) ListTransactions(_ context.Context, userID uuid.UUID, filters TransactionFilters) ([]*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txs []*ledger.Transaction
	for _, tx := range m.transactions {
		account, ok := m.accounts[tx.BankAccountID]
		if !ok || account.UserID != userID {
			continue
		}
		if filters.OnlyUnreconciled && tx.IsReconciled {
			continue
		}
		cp := *tx
		txs = append(txs, &cp)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	if filters.Offset >= len(txs) {
		return nil, nil
	}
	txs = txs[filters.Offset:]
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (m *MockRepository) SaveInvoice(_ context.Context, invoice *ledger.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invoices {
		if existing.UserID == invoice.UserID && existing.InvoiceNumber == invoice.InvoiceNumber {
			return ledger.ErrDuplicateInvoiceNumber
		}
	}
	cp := *invoice
	m.invoices[invoice.ID] = &cp
	return nil
}

func (m *MockRepository) UpdateInvoice(_ context.Context, invoice *ledger.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[invoice.ID]; !ok {
		return ledger.ErrNotFound
	}
	cp := *invoice
	m.invoices[invoice.ID] = &cp
	return nil
}

func (m *MockRepository) GetInvoice(_ context.Context, id uuid.UUID) (*ledger.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetInvoiceErr != nil {
		return nil, m.GetInvoiceErr
	}
	invoice, ok := m.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *invoice
	return &cp, nil
}

func (m *MockRepository) GetInvoiceByNumber(_ context.Context, userID uuid.UUID, number string) (*ledger.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invoice := range m.invoices {
		if invoice.UserID == userID && invoice.InvoiceNumber == number {
			cp := *invoice
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListOpenInvoices(_ context.Context, userID uuid.UUID, limit int) ([]*ledger.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListOpenInvoicesErr != nil {
		return nil, m.ListOpenInvoicesErr
	}

	var open []*ledger.Invoice
	for _, invoice := range m.invoices {
		if invoice.UserID != userID || invoice.Status != ledger.InvoicePending || invoice.IsReconciled {
			continue
		}
		cp := *invoice
		open = append(open, &cp)
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].DueDate.Equal(open[j].DueDate) {
			return open[i].DueDate.Before(open[j].DueDate)
		}
		return open[i].InvoiceNumber < open[j].InvoiceNumber
	})

	if limit <= 0 {
		limit = 100
	}
	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (m *MockRepository) ListInvoices(_ context.Context, userID uuid.UUID, status ledger.InvoiceStatus) ([]*ledger.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var invoices []*ledger.Invoice
	for _, invoice := range m.invoices {
		if invoice.UserID != userID {
			continue
		}
		if status != "" && invoice.Status != status {
			continue
		}
		cp := *invoice
		invoices = append(invoices, &cp)
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].IssueDate.After(invoices[j].IssueDate) })
	return invoices, nil
}

func (m *MockRepository) MarkOverdue(_ context.Context, userID uuid.UUID, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var flipped int64
	for _, invoice := range m.invoices {
		if invoice.UserID == userID && invoice.Status == ledger.InvoicePending && invoice.DueDate.Before(asOf) {
			invoice.Status = ledger.InvoiceOverdue
			invoice.UpdatedAt = asOf
			flipped++
		}
	}
	return flipped, nil
}

func (m *MockRepository) CreateReconciliation(_ context.Context, rec *ledger.Reconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateReconciliationCalled = true

	if m.CreateReconciliationErr != nil {
		return m.CreateReconciliationErr
	}

	tx, ok := m.transactions[rec.TransactionID]
	if !ok {
		return ledger.ErrNotFound
	}
	invoice, ok := m.invoices[rec.InvoiceID]
	if !ok {
		return ledger.ErrNotFound
	}

	// Uniqueness enforced under the same lock as the write, mirroring
	// the SQLite unique indexes.
	for _, existing := range m.reconciliations {
		if existing.TransactionID == rec.TransactionID {
			return ledger.ErrTransactionReconciled
		}
		if existing.InvoiceID == rec.InvoiceID {
			return ledger.ErrInvoiceReconciled
		}
	}
	if tx.IsReconciled {
		return ledger.ErrTransactionReconciled
	}
	if invoice.IsReconciled {
		return ledger.ErrInvoiceReconciled
	}

	cp := *rec
	m.reconciliations[rec.ID] = &cp
	m.LastReconciliation = &cp

	recID := rec.ID
	tx.IsReconciled = true
	tx.ReconciliationID = &recID

	paymentDate := tx.Date.Truncate(24 * time.Hour)
	invoice.IsReconciled = true
	invoice.ReconciliationID = &recID
	invoice.Status = ledger.InvoicePaid
	invoice.PaymentDate = &paymentDate
	invoice.UpdatedAt = rec.CreatedAt

	return nil
}

func (m *MockRepository) GetReconciliation(_ context.Context, id uuid.UUID) (*ledger.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.reconciliations[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRepository) ListReconciliations(_ context.Context, userID uuid.UUID) ([]*ledger.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var recs []*ledger.Reconciliation
	for _, rec := range m.reconciliations {
		if rec.UserID != userID {
			continue
		}
		cp := *rec
		recs = append(recs, &cp)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (m *MockRepository) ReconciliationStats(_ context.Context, userID uuid.UUID) (*ReconciliationStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}

	stats := &ReconciliationStats{
		ByMethod:    make(map[ledger.MatchMethod]int),
		ByValidator: make(map[ledger.Validator]int),
	}
	for _, rec := range m.reconciliations {
		if rec.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByMethod[rec.MatchMethod]++
		stats.ByValidator[rec.ValidatedBy]++
	}
	return stats, nil
}

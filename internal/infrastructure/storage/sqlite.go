package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
)

// Storage provides SQLite database access. It implements the
// Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance backed by a SQLite database.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	// Concurrent writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveBankAccount inserts or replaces a bank account.
func (s *Storage) SaveBankAccount(ctx context.Context, account *ledger.BankAccount) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO bank_accounts (id, user_id, bank_name, iban, currency, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID.String(),
		account.UserID.String(),
		account.BankName,
		account.IBAN,
		account.Currency,
		account.CreatedAt,
	)
	return err
}

// GetBankAccount retrieves a bank account by ID.
func (s *Storage) GetBankAccount(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, user_id, bank_name, iban, currency, created_at
	FROM bank_accounts WHERE id = ?`, id.String())

	var (
		account        ledger.BankAccount
		accountID, uid string
		iban           sql.NullString
	)
	err := row.Scan(&accountID, &uid, &account.BankName, &iban, &account.Currency, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if account.ID, err = uuid.Parse(accountID); err != nil {
		return nil, err
	}
	if account.UserID, err = uuid.Parse(uid); err != nil {
		return nil, err
	}
	account.IBAN = iban.String
	return &account, nil
}

// SaveTransaction inserts or replaces a transaction.
func (s *Storage) SaveTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO transactions
	(id, bank_account_id, date, description, amount, currency, is_reconciled, reconciliation_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(),
		tx.BankAccountID.String(),
		tx.Date,
		tx.Description,
		tx.Amount.String(),
		tx.Currency,
		tx.IsReconciled,
		uuidPtrToNull(tx.ReconciliationID),
		tx.CreatedAt,
	)
	return err
}

// GetTransaction retrieves a transaction by ID.
func (s *Storage) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, bank_account_id, date, description, amount, currency, is_reconciled, reconciliation_id, created_at
	FROM transactions WHERE id = ?`, id.String())

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

// ListTransactions returns transactions for the user's bank accounts,
// newest first.
func (s *Storage) ListTransactions(ctx context.Context, userID uuid.UUID, filters TransactionFilters) ([]*ledger.Transaction, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT t.id, t.bank_account_id, t.date, t.description, t.amount, t.currency,
	       t.is_reconciled, t.reconciliation_id, t.created_at
	FROM transactions t
	JOIN bank_accounts a ON a.id = t.bank_account_id
	WHERE a.user_id = ?`
	args := []any{userID.String()}

	if filters.OnlyUnreconciled {
		query += " AND t.is_reconciled = 0"
	}
	query += " ORDER BY t.date DESC, t.id LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveInvoice inserts a new invoice. A duplicate (user, number) pair
// fails with ledger.ErrDuplicateInvoiceNumber.
func (s *Storage) SaveInvoice(ctx context.Context, invoice *ledger.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO invoices
	(id, user_id, invoice_number, client_name, client_email, amount, tax_amount, total_amount,
	 currency, issue_date, due_date, payment_date, status, is_reconciled, reconciliation_id,
	 created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID.String(),
		invoice.UserID.String(),
		invoice.InvoiceNumber,
		invoice.ClientName,
		invoice.ClientEmail,
		invoice.Amount.String(),
		invoice.TaxAmount.String(),
		invoice.TotalAmount.String(),
		invoice.Currency,
		invoice.IssueDate,
		invoice.DueDate,
		timePtrToNull(invoice.PaymentDate),
		string(invoice.Status),
		invoice.IsReconciled,
		uuidPtrToNull(invoice.ReconciliationID),
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if isUniqueViolation(err, "invoices.invoice_number") || isUniqueViolation(err, "invoices.user_id") {
		return ledger.ErrDuplicateInvoiceNumber
	}
	return err
}

// UpdateInvoice rewrites a stored invoice.
func (s *Storage) UpdateInvoice(ctx context.Context, invoice *ledger.Invoice) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE invoices SET
		invoice_number = ?, client_name = ?, client_email = ?, amount = ?, tax_amount = ?,
		total_amount = ?, currency = ?, issue_date = ?, due_date = ?, payment_date = ?,
		status = ?, is_reconciled = ?, reconciliation_id = ?, updated_at = ?
	WHERE id = ?`,
		invoice.InvoiceNumber,
		invoice.ClientName,
		invoice.ClientEmail,
		invoice.Amount.String(),
		invoice.TaxAmount.String(),
		invoice.TotalAmount.String(),
		invoice.Currency,
		invoice.IssueDate,
		invoice.DueDate,
		timePtrToNull(invoice.PaymentDate),
		string(invoice.Status),
		invoice.IsReconciled,
		uuidPtrToNull(invoice.ReconciliationID),
		invoice.UpdatedAt,
		invoice.ID.String(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetInvoice retrieves an invoice by ID.
func (s *Storage) GetInvoice(ctx context.Context, id uuid.UUID) (*ledger.Invoice, error) {
	row := s.db.QueryRowContext(ctx, selectInvoice+" WHERE id = ?", id.String())
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// GetInvoiceByNumber retrieves a user's invoice by its number.
func (s *Storage) GetInvoiceByNumber(ctx context.Context, userID uuid.UUID, number string) (*ledger.Invoice, error) {
	row := s.db.QueryRowContext(ctx, selectInvoice+" WHERE user_id = ? AND invoice_number = ?",
		userID.String(), number)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// ListOpenInvoices returns pending, unreconciled invoices ordered by
// due date ascending.
func (s *Storage) ListOpenInvoices(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		selectInvoice+` WHERE user_id = ? AND status = ? AND is_reconciled = 0
		ORDER BY due_date ASC, invoice_number ASC LIMIT ?`,
		userID.String(), string(ledger.InvoicePending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// ListInvoices returns the user's invoices, optionally filtered by status.
func (s *Storage) ListInvoices(ctx context.Context, userID uuid.UUID, status ledger.InvoiceStatus) ([]*ledger.Invoice, error) {
	query := selectInvoice + " WHERE user_id = ?"
	args := []any{userID.String()}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY issue_date DESC, invoice_number ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// MarkOverdue flips past-due pending invoices to overdue.
func (s *Storage) MarkOverdue(ctx context.Context, userID uuid.UUID, asOf time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE invoices SET status = ?, updated_at = ?
	WHERE user_id = ? AND status = ? AND due_date < ?`,
		string(ledger.InvoiceOverdue), asOf, userID.String(), string(ledger.InvoicePending), asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateReconciliation applies the link in a single SQL transaction:
// insert the record, flip the transaction, flip and pay the invoice.
// The guarded UPDATEs plus the unique indexes make concurrent claims
// lose with a Conflict error rather than a double link.
func (s *Storage) CreateReconciliation(ctx context.Context, rec *ledger.Reconciliation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO reconciliations
	(id, user_id, transaction_id, invoice_id, match_score, match_method, validated_by, reasoning, validated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		rec.UserID.String(),
		rec.TransactionID.String(),
		rec.InvoiceID.String(),
		rec.MatchScore.String(),
		string(rec.MatchMethod),
		string(rec.ValidatedBy),
		rec.Reasoning,
		rec.ValidatedAt,
		rec.CreatedAt,
	)
	if isUniqueViolation(err, "reconciliations.transaction_id") {
		return ledger.ErrTransactionReconciled
	}
	if isUniqueViolation(err, "reconciliations.invoice_id") {
		return ledger.ErrInvoiceReconciled
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
	UPDATE transactions SET is_reconciled = 1, reconciliation_id = ?
	WHERE id = ? AND is_reconciled = 0`,
		rec.ID.String(), rec.TransactionID.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ledger.ErrTransactionReconciled
	}

	var txDate time.Time
	if err := tx.QueryRowContext(ctx, "SELECT date FROM transactions WHERE id = ?",
		rec.TransactionID.String()).Scan(&txDate); err != nil {
		return err
	}
	paymentDate := txDate.Truncate(24 * time.Hour)

	res, err = tx.ExecContext(ctx, `
	UPDATE invoices SET is_reconciled = 1, reconciliation_id = ?, status = ?, payment_date = ?, updated_at = ?
	WHERE id = ? AND is_reconciled = 0`,
		rec.ID.String(), string(ledger.InvoicePaid), paymentDate, rec.CreatedAt, rec.InvoiceID.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ledger.ErrInvoiceReconciled
	}

	return tx.Commit()
}

// GetReconciliation retrieves a reconciliation by ID.
func (s *Storage) GetReconciliation(ctx context.Context, id uuid.UUID) (*ledger.Reconciliation, error) {
	row := s.db.QueryRowContext(ctx, selectReconciliation+" WHERE id = ?", id.String())
	rec, err := scanReconciliation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListReconciliations returns the user's reconciliations, newest first.
func (s *Storage) ListReconciliations(ctx context.Context, userID uuid.UUID) ([]*ledger.Reconciliation, error) {
	rows, err := s.db.QueryContext(ctx,
		selectReconciliation+" WHERE user_id = ? ORDER BY created_at DESC, id", userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*ledger.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ReconciliationStats returns rollup counts grouped by method and validator.
func (s *Storage) ReconciliationStats(ctx context.Context, userID uuid.UUID) (*ReconciliationStats, error) {
	stats := &ReconciliationStats{
		ByMethod:    make(map[ledger.MatchMethod]int),
		ByValidator: make(map[ledger.Validator]int),
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT match_method, validated_by, COUNT(*)
	FROM reconciliations WHERE user_id = ?
	GROUP BY match_method, validated_by`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			method    string
			validator string
			count     int
		)
		if err := rows.Scan(&method, &validator, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByMethod[ledger.MatchMethod(method)] += count
		stats.ByValidator[ledger.Validator(validator)] += count
	}
	return stats, rows.Err()
}

const selectInvoice = `
	SELECT id, user_id, invoice_number, client_name, client_email, amount, tax_amount, total_amount,
	       currency, issue_date, due_date, payment_date, status, is_reconciled, reconciliation_id,
	       created_at, updated_at
	FROM invoices`

const selectReconciliation = `
	SELECT id, user_id, transaction_id, invoice_id, match_score, match_method, validated_by,
	       reasoning, validated_at, created_at
	FROM reconciliations`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var (
		tx               ledger.Transaction
		id, accountID    string
		amount           string
		reconciliationID sql.NullString
	)
	err := row.Scan(&id, &accountID, &tx.Date, &tx.Description, &amount, &tx.Currency,
		&tx.IsReconciled, &reconciliationID, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	if tx.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if tx.BankAccountID, err = uuid.Parse(accountID); err != nil {
		return nil, err
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %s: %w", id, err)
	}
	if tx.ReconciliationID, err = nullToUUIDPtr(reconciliationID); err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanInvoice(row rowScanner) (*ledger.Invoice, error) {
	var (
		inv                      ledger.Invoice
		id, userID               string
		clientEmail              sql.NullString
		amount, tax, total       string
		paymentDate              sql.NullTime
		status                   string
		reconciliationID         sql.NullString
	)
	err := row.Scan(&id, &userID, &inv.InvoiceNumber, &inv.ClientName, &clientEmail,
		&amount, &tax, &total, &inv.Currency, &inv.IssueDate, &inv.DueDate, &paymentDate,
		&status, &inv.IsReconciled, &reconciliationID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if inv.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if inv.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	inv.ClientEmail = clientEmail.String
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt amount for invoice %s: %w", id, err)
	}
	if inv.TaxAmount, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("corrupt tax amount for invoice %s: %w", id, err)
	}
	if inv.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("corrupt total for invoice %s: %w", id, err)
	}
	if paymentDate.Valid {
		d := paymentDate.Time
		inv.PaymentDate = &d
	}
	inv.Status = ledger.InvoiceStatus(status)
	if inv.ReconciliationID, err = nullToUUIDPtr(reconciliationID); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanReconciliation(row rowScanner) (*ledger.Reconciliation, error) {
	var (
		rec                  ledger.Reconciliation
		id, userID           string
		txID, invID          string
		score                string
		method, validator    string
		reasoning            sql.NullString
	)
	err := row.Scan(&id, &userID, &txID, &invID, &score, &method, &validator,
		&reasoning, &rec.ValidatedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if rec.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if rec.TransactionID, err = uuid.Parse(txID); err != nil {
		return nil, err
	}
	if rec.InvoiceID, err = uuid.Parse(invID); err != nil {
		return nil, err
	}
	if rec.MatchScore, err = decimal.NewFromString(score); err != nil {
		return nil, fmt.Errorf("corrupt score for reconciliation %s: %w", id, err)
	}
	rec.MatchMethod = ledger.MatchMethod(method)
	rec.ValidatedBy = ledger.Validator(validator)
	rec.Reasoning = reasoning.String
	return &rec, nil
}

func collectInvoices(rows *sql.Rows) ([]*ledger.Invoice, error) {
	var invoices []*ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	return strings.Contains(err.Error(), constraint)
}

func uuidPtrToNull(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func nullToUUIDPtr(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

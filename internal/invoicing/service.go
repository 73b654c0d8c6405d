// Package invoicing manages the invoice lifecycle: creation, edits,
// listing, and the overdue sweep. Payment transitions do not live here;
// they happen exclusively through the reconciliation link.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/infrastructure/storage"
)

// Validation errors for invoice input.
var (
	ErrAmountNotPositive      = errors.New("invoice amount must be positive")
	ErrNegativeTax            = errors.New("tax amount must not be negative")
	ErrMissingInvoiceNumber   = errors.New("invoice number is required")
	ErrMissingClientName      = errors.New("client name is required")
	ErrMissingCurrency        = errors.New("currency is required")
	ErrDueBeforeIssue         = errors.New("due date must not precede issue date")
	ErrReconciledInvoiceFixed = fmt.Errorf("reconciled invoice cannot be edited: %w", ledger.ErrConflict)
)

// Service implements invoice management on top of the repository.
type Service struct {
	repo   storage.InvoiceRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the invoicing service.
func NewService(repo storage.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateParams carries a new invoice.
type CreateParams struct {
	InvoiceNumber string
	ClientName    string
	ClientEmail   string
	Amount        decimal.Decimal
	TaxAmount     decimal.Decimal
	Currency      string
	IssueDate     time.Time
	DueDate       time.Time
}

// UpdateParams carries editable invoice fields. Nil pointers leave the
// field unchanged.
type UpdateParams struct {
	ClientName  *string
	ClientEmail *string
	Amount      *decimal.Decimal
	TaxAmount   *decimal.Decimal
	DueDate     *time.Time
	Status      *ledger.InvoiceStatus
}

// Create validates and stores a new invoice. The total is always
// derived from amount plus tax; invoices already past due are created
// in overdue status directly.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*ledger.Invoice, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(params.InvoiceNumber)
	existing, err := s.repo.GetInvoiceByNumber(ctx, userID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check invoice number: %w", err)
	}
	if existing != nil {
		return nil, ledger.ErrDuplicateInvoiceNumber
	}

	now := s.now().UTC()
	status := ledger.InvoicePending
	if params.DueDate.Before(now) {
		status = ledger.InvoiceOverdue
	}

	invoice := &ledger.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		InvoiceNumber: number,
		ClientName:    strings.TrimSpace(params.ClientName),
		ClientEmail:   strings.TrimSpace(params.ClientEmail),
		Amount:        params.Amount,
		TaxAmount:     params.TaxAmount,
		Currency:      strings.ToUpper(strings.TrimSpace(params.Currency)),
		IssueDate:     params.IssueDate,
		DueDate:       params.DueDate,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	invoice.RecalculateTotal()

	// The unique index on (user_id, invoice_number) closes the race
	// between the lookup above and this insert.
	if err := s.repo.SaveInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		"invoice_number", invoice.InvoiceNumber,
		"client", invoice.ClientName,
		"total", invoice.TotalAmount,
		"status", invoice.Status)

	return invoice, nil
}

// Get returns the user's invoice. A foreign invoice reports Forbidden,
// a missing one NotFound.
func (s *Service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*ledger.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, ledger.ErrNotFound
	}
	if invoice.UserID != userID {
		return nil, ledger.ErrForbidden
	}
	return invoice, nil
}

// List returns the user's invoices, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status ledger.InvoiceStatus) ([]*ledger.Invoice, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown invoice status %q", status)
	}
	return s.repo.ListInvoices(ctx, userID, status)
}

// Update applies partial edits to an unreconciled invoice and recomputes
// the total when either amount changed.
func (s *Service) Update(ctx context.Context, userID, invoiceID uuid.UUID, params UpdateParams) (*ledger.Invoice, error) {
	invoice, err := s.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.IsReconciled {
		return nil, ErrReconciledInvoiceFixed
	}

	if params.ClientName != nil {
		name := strings.TrimSpace(*params.ClientName)
		if name == "" {
			return nil, ErrMissingClientName
		}
		invoice.ClientName = name
	}
	if params.ClientEmail != nil {
		invoice.ClientEmail = strings.TrimSpace(*params.ClientEmail)
	}
	if params.Amount != nil {
		if !params.Amount.IsPositive() {
			return nil, ErrAmountNotPositive
		}
		invoice.Amount = *params.Amount
	}
	if params.TaxAmount != nil {
		if params.TaxAmount.IsNegative() {
			return nil, ErrNegativeTax
		}
		invoice.TaxAmount = *params.TaxAmount
	}
	if params.DueDate != nil {
		if params.DueDate.Before(invoice.IssueDate) {
			return nil, ErrDueBeforeIssue
		}
		invoice.DueDate = *params.DueDate
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, fmt.Errorf("unknown invoice status %q", *params.Status)
		}
		invoice.Status = *params.Status
	}

	invoice.RecalculateTotal()
	invoice.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

// MarkOverdue flips the user's past-due pending invoices to overdue and
// returns how many changed.
func (s *Service) MarkOverdue(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	if n > 0 {
		s.logger.Info("marked invoices overdue", "count", n)
	}
	return n, nil
}

func validateCreate(params CreateParams) error {
	if strings.TrimSpace(params.InvoiceNumber) == "" {
		return ErrMissingInvoiceNumber
	}
	if strings.TrimSpace(params.ClientName) == "" {
		return ErrMissingClientName
	}
	if strings.TrimSpace(params.Currency) == "" {
		return ErrMissingCurrency
	}
	if !params.Amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if params.TaxAmount.IsNegative() {
		return ErrNegativeTax
	}
	if params.DueDate.Before(params.IssueDate) {
		return ErrDueBeforeIssue
	}
	return nil
}

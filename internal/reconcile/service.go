// Package reconcile is the reconciliation engine façade. It wires the
// matching strategies, the ranker, and the persistence capability into
// the four outward operations: suggestions, creation, auto-reconcile,
// and statistics.
//
// The service is request-scoped and stateless between calls; every
// method is safe to run concurrently with the others.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/domain/match"
	"ledgerlink/internal/infrastructure/storage"
)

// Config tunes the engine's thresholds.
type Config struct {
	// AutoThreshold is the minimum score for auto-reconciliation.
	AutoThreshold decimal.Decimal

	// CandidateLimit caps how many open invoices are considered per
	// suggestion request.
	CandidateLimit int

	// MatcherTimeout bounds a single semantic matcher call.
	MatcherTimeout time.Duration
}

// DefaultConfig returns the production thresholds: auto-reconcile at
// 0.95, at most 100 candidate invoices, 30s matcher timeout.
func DefaultConfig() Config {
	return Config{
		AutoThreshold:  decimal.New(95, -2),
		CandidateLimit: 100,
		MatcherTimeout: match.DefaultMatcherTimeout,
	}
}

// Service implements the reconciliation engine.
type Service struct {
	repo   storage.Repository
	exact  *match.ExactStrategy
	fuzzy  *match.FuzzyStrategy
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the engine. The semantic matcher may be nil, which
// disables the fuzzy pass; the engine never constructs the matcher
// itself.
func NewService(repo storage.Repository, matcher match.SemanticMatcher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultConfig().CandidateLimit
	}
	if cfg.AutoThreshold.IsZero() {
		cfg.AutoThreshold = DefaultConfig().AutoThreshold
	}
	return &Service{
		repo:   repo,
		exact:  match.NewExactStrategy(),
		fuzzy:  match.NewFuzzyStrategy(matcher, cfg.MatcherTimeout, logger),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Suggest returns ranked match candidates for the transaction. The
// exact pass runs first; the fuzzy pass only when it yields nothing.
// Semantic matcher failures degrade to an empty (or shorter) list and
// are never surfaced as errors.
func (s *Service) Suggest(ctx context.Context, userID, transactionID uuid.UUID) ([]match.Candidate, error) {
	tx, err := s.ownedTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.ListOpenInvoices(ctx, userID, s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	candidates := s.exact.Match(tx, invoices)
	if len(candidates) == 0 {
		candidates = s.fuzzy.Match(ctx, tx, invoices)
	}

	return match.Rank(candidates), nil
}

// CreateParams carries a reconciliation creation request.
type CreateParams struct {
	TransactionID uuid.UUID
	InvoiceID     uuid.UUID
	Score         decimal.Decimal
	Method        ledger.MatchMethod
	Reasoning     string
	ValidatedBy   ledger.Validator
}

// Create validates the link request and applies it atomically.
// Precondition failures come back in a fixed order: existence, then
// ownership, then the two uniqueness conflicts.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*ledger.Reconciliation, error) {
	tx, err := s.repo.GetTransaction(ctx, params.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	invoice, err := s.repo.GetInvoice(ctx, params.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if tx == nil || invoice == nil {
		return nil, ledger.ErrNotFound
	}

	account, err := s.repo.GetBankAccount(ctx, tx.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank account: %w", err)
	}
	if account == nil || account.UserID != userID || invoice.UserID != userID {
		return nil, ledger.ErrForbidden
	}

	if tx.IsReconciled {
		return nil, ledger.ErrTransactionReconciled
	}
	if invoice.IsReconciled {
		return nil, ledger.ErrInvoiceReconciled
	}

	rec, err := ledger.NewReconciliation(userID, params.TransactionID, params.InvoiceID,
		params.Score, params.Method, params.ValidatedBy, params.Reasoning, s.now().UTC())
	if err != nil {
		return nil, err
	}

	// The storage layer re-checks uniqueness under its own lock; the
	// checks above are only for orderly error reporting.
	if err := s.repo.CreateReconciliation(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("reconciliation created",
		"transaction_id", params.TransactionID,
		"invoice_number", invoice.InvoiceNumber,
		"method", rec.MatchMethod,
		"validated_by", rec.ValidatedBy)

	return rec, nil
}

// TryAutoReconcile derives fresh suggestions for the transaction and
// links the top candidate without human review, but only when it is an
// exact match at or above the auto threshold. Every other outcome,
// including high-scoring reference and fuzzy matches, returns nil.
func (s *Service) TryAutoReconcile(ctx context.Context, userID, transactionID uuid.UUID) (*ledger.Reconciliation, error) {
	suggestions, err := s.Suggest(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}

	best := suggestions[0]
	if best.Method != ledger.MatchExact || best.Score.LessThan(s.cfg.AutoThreshold) {
		return nil, nil
	}

	rec, err := s.Create(ctx, userID, CreateParams{
		TransactionID: transactionID,
		InvoiceID:     best.InvoiceID,
		Score:         best.Score,
		Method:        best.Method,
		Reasoning:     best.Reasoning,
		ValidatedBy:   ledger.ValidatorAI,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("auto-reconciled transaction",
		"transaction_id", transactionID, "invoice_id", best.InvoiceID)
	return rec, nil
}

// List returns the user's reconciliation records, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*ledger.Reconciliation, error) {
	return s.repo.ListReconciliations(ctx, userID)
}

// Stats contains the read-only rollups over a user's reconciliations.
type Stats struct {
	Total          int                        `json:"total"`
	ByMethod       map[ledger.MatchMethod]int `json:"by_method"`
	ByValidator    map[ledger.Validator]int   `json:"by_validator"`
	AutomationRate float64                    `json:"auto_reconciliation_rate"`
}

// Stats returns reconciliation counts and the automation rate. The rate
// is 0 when there are no reconciliations.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	raw, err := s.repo.ReconciliationStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	stats := &Stats{
		Total:       raw.Total,
		ByMethod:    raw.ByMethod,
		ByValidator: raw.ByValidator,
	}
	if raw.Total > 0 {
		stats.AutomationRate = float64(raw.ByValidator[ledger.ValidatorAI]) / float64(raw.Total) * 100
	}
	return stats, nil
}

// ownedTransaction loads a transaction and verifies it belongs to the
// user through its bank account.
func (s *Service) ownedTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*ledger.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil {
		return nil, ledger.ErrNotFound
	}

	account, err := s.repo.GetBankAccount(ctx, tx.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank account: %w", err)
	}
	if account == nil || account.UserID != userID {
		return nil, ledger.ErrForbidden
	}
	return tx, nil
}

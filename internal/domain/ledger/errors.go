package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Callers distinguish
// them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNotFound means the transaction or invoice does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the record belongs to another user. The message
	// is deliberately generic: it must not leak whether the record exists.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is the base error for uniqueness violations.
	ErrConflict = errors.New("conflict")

	// ErrTransactionReconciled means the transaction already has a
	// reconciliation.
	ErrTransactionReconciled = fmt.Errorf("transaction already reconciled: %w", ErrConflict)

	// ErrInvoiceReconciled means the invoice already has a reconciliation.
	ErrInvoiceReconciled = fmt.Errorf("invoice already reconciled: %w", ErrConflict)

	// ErrDuplicateInvoiceNumber means the user already has an invoice
	// with that number.
	ErrDuplicateInvoiceNumber = fmt.Errorf("invoice number already exists: %w", ErrConflict)

	// ErrScoreOutOfRange means a match score outside [0, 1] was supplied.
	ErrScoreOutOfRange = errors.New("match score out of range [0, 1]")

	// ErrInvalidMatchMethod means an unknown match method was supplied.
	ErrInvalidMatchMethod = errors.New("invalid match method")

	// ErrInvalidValidator means an unknown validator was supplied.
	ErrInvalidValidator = errors.New("invalid validator")

	// ErrReasoningRequired means a fuzzy match was submitted without
	// its justification text.
	ErrReasoningRequired = errors.New("reasoning required for fuzzy_ai matches")
)

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"ledgerlink/internal/api/dto"
	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/invoicing"
)

// UserIDHeader carries the authenticated user. An auth middleware is
// expected to set it; the engine still enforces ownership on every
// operation regardless.
const UserIDHeader = "X-User-ID"

// Base provides shared functionality for all handlers.
type Base struct{}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// UserID extracts and validates the user from the request header.
// On failure it writes a 401 response and returns false.
func (b *Base) UserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		b.WriteError(w, http.StatusUnauthorized, dto.UnauthorizedError())
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		b.WriteError(w, http.StatusUnauthorized, dto.UnauthorizedError())
		return uuid.Nil, false
	}
	return id, true
}

// WriteDomainError maps an engine error to its HTTP response.
func (b *Base) WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("record"))
	case errors.Is(err, ledger.ErrForbidden):
		b.WriteError(w, http.StatusForbidden, dto.ForbiddenError())
	case errors.Is(err, ledger.ErrConflict):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case isValidationError(err):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// isValidationError reports whether err is a caller mistake rather than
// an engine failure.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		ledger.ErrScoreOutOfRange,
		ledger.ErrInvalidMatchMethod,
		ledger.ErrInvalidValidator,
		ledger.ErrReasoningRequired,
		invoicing.ErrAmountNotPositive,
		invoicing.ErrNegativeTax,
		invoicing.ErrMissingInvoiceNumber,
		invoicing.ErrMissingClientName,
		invoicing.ErrMissingCurrency,
		invoicing.ErrDueBeforeIssue,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

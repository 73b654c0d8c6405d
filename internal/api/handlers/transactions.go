package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ledgerlink/internal/api/dto"
	"ledgerlink/internal/infrastructure/storage"
	"ledgerlink/internal/reconcile"
)

// TransactionsHandler handles transaction-related HTTP requests,
// including match suggestions and auto-reconciliation.
type TransactionsHandler struct {
	Base
	repo    storage.Repository
	service *reconcile.Service
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository, service *reconcile.Service) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, service: service}
}

// List handles GET /api/transactions - returns the user's transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	filters := storage.TransactionFilters{
		OnlyUnreconciled: ParseBoolParam(r, "unreconciled", false),
		Limit:            ParseIntParam(r, "limit", 50),
		Offset:           ParseIntParam(r, "offset", 0),
	}

	transactions, err := h.repo.ListTransactions(r.Context(), userID, filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(transactions)),
		Count:        len(transactions),
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
	for _, tx := range transactions {
		response.Transactions = append(response.Transactions, dto.ToTransactionResponse(tx))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}
	txID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tx, err := h.repo.GetTransaction(r.Context(), txID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if tx == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	}

	account, err := h.repo.GetBankAccount(r.Context(), tx.BankAccountID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if account == nil || account.UserID != userID {
		h.WriteError(w, http.StatusForbidden, dto.ForbiddenError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToTransactionResponse(tx))
}

// Suggestions handles GET /api/transactions/{id}/suggestions.
func (h *TransactionsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}
	txID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	candidates, err := h.service.Suggest(r.Context(), userID, txID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	response := dto.SuggestionListResponse{
		TransactionID: txID.String(),
		Suggestions:   make([]dto.SuggestionResponse, 0, len(candidates)),
	}
	for _, c := range candidates {
		response.Suggestions = append(response.Suggestions, dto.ToSuggestionResponse(c))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// AutoReconcile handles POST /api/transactions/{id}/auto-reconcile.
// Returns 201 with the record when a link was made, 204 when no
// candidate qualified.
func (h *TransactionsHandler) AutoReconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}
	txID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.TryAutoReconcile(r.Context(), userID, txID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ToReconciliationResponse(rec))
}

func (h *TransactionsHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid transaction ID"))
		return uuid.Nil, false
	}
	return id, true
}

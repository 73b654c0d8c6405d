package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/api/dto"
	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/reconcile"
)

// ReconciliationsHandler handles reconciliation HTTP requests.
type ReconciliationsHandler struct {
	Base
	service *reconcile.Service
}

// NewReconciliationsHandler creates a new reconciliations handler.
func NewReconciliationsHandler(service *reconcile.Service) *ReconciliationsHandler {
	return &ReconciliationsHandler{service: service}
}

// Create handles POST /api/reconciliations - links a transaction to an
// invoice after user review.
func (h *ReconciliationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	var req dto.CreateReconciliationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid transaction_id"))
		return
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid invoice_id"))
		return
	}
	score, err := decimal.NewFromString(req.MatchScore)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid match_score"))
		return
	}

	rec, err := h.service.Create(r.Context(), userID, reconcile.CreateParams{
		TransactionID: txID,
		InvoiceID:     invoiceID,
		Score:         score,
		Method:        ledger.MatchMethod(req.MatchMethod),
		Reasoning:     req.Reasoning,
		ValidatedBy:   ledger.ValidatorUser,
	})
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ToReconciliationResponse(rec))
}

// List handles GET /api/reconciliations - the user's records, newest first.
func (h *ReconciliationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	records, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.ReconciliationListResponse{
		Reconciliations: make([]dto.ReconciliationResponse, 0, len(records)),
		Count:           len(records),
	}
	for _, rec := range records {
		response.Reconciliations = append(response.Reconciliations, dto.ToReconciliationResponse(rec))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Stats handles GET /api/reconciliations/stats.
func (h *ReconciliationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToStatsResponse(stats))
}

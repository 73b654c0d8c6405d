package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/api/dto"
	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/invoicing"
)

const dateLayout = "2006-01-02"

// InvoicesHandler handles invoice HTTP requests.
type InvoicesHandler struct {
	Base
	service *invoicing.Service
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(service *invoicing.Service) *InvoicesHandler {
	return &InvoicesHandler{service: service}
}

// Create handles POST /api/invoices.
func (h *InvoicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid amount"))
		return
	}
	tax := decimal.Zero
	if req.TaxAmount != "" {
		tax, err = decimal.NewFromString(req.TaxAmount)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid tax_amount"))
			return
		}
	}
	issueDate, err := time.Parse(dateLayout, req.IssueDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid issue_date, expected YYYY-MM-DD"))
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid due_date, expected YYYY-MM-DD"))
		return
	}

	invoice, err := h.service.Create(r.Context(), userID, invoicing.CreateParams{
		InvoiceNumber: req.InvoiceNumber,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		Amount:        amount,
		TaxAmount:     tax,
		Currency:      req.Currency,
		IssueDate:     issueDate,
		DueDate:       dueDate,
	})
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ToInvoiceResponse(invoice))
}

// List handles GET /api/invoices with an optional status filter.
func (h *InvoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}

	status := ledger.InvoiceStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("unknown status filter"))
		return
	}

	invoices, err := h.service.List(r.Context(), userID, status)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.InvoiceListResponse{
		Invoices: make([]dto.InvoiceResponse, 0, len(invoices)),
		Count:    len(invoices),
	}
	for _, invoice := range invoices {
		response.Invoices = append(response.Invoices, dto.ToInvoiceResponse(invoice))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/invoices/{id}.
func (h *InvoicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	invoice, err := h.service.Get(r.Context(), userID, invoiceID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToInvoiceResponse(invoice))
}

// Update handles PATCH /api/invoices/{id}.
func (h *InvoicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.UserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	params := invoicing.UpdateParams{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid amount"))
			return
		}
		params.Amount = &amount
	}
	if req.TaxAmount != nil {
		tax, err := decimal.NewFromString(*req.TaxAmount)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid tax_amount"))
			return
		}
		params.TaxAmount = &tax
	}
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid due_date, expected YYYY-MM-DD"))
			return
		}
		params.DueDate = &due
	}
	if req.Status != nil {
		status := ledger.InvoiceStatus(*req.Status)
		if !status.Valid() {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("unknown status"))
			return
		}
		params.Status = &status
	}

	invoice, err := h.service.Update(r.Context(), userID, invoiceID, params)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *InvoicesHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid invoice ID"))
		return uuid.Nil, false
	}
	return id, true
}

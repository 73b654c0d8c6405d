package dto

import (
	"time"

	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/domain/match"
	"ledgerlink/internal/reconcile"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TransactionResponse represents a bank transaction in API responses.
// Monetary values travel as decimal strings.
type TransactionResponse struct {
	ID               string `json:"id"`
	BankAccountID    string `json:"bank_account_id"`
	Date             string `json:"date"` // YYYY-MM-DD
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	IsReconciled     bool   `json:"is_reconciled"`
	ReconciliationID string `json:"reconciliation_id,omitempty"`
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID               string `json:"id"`
	InvoiceNumber    string `json:"invoice_number"`
	ClientName       string `json:"client_name"`
	ClientEmail      string `json:"client_email,omitempty"`
	Amount           string `json:"amount"`
	TaxAmount        string `json:"tax_amount"`
	TotalAmount      string `json:"total_amount"`
	Currency         string `json:"currency"`
	IssueDate        string `json:"issue_date"`
	DueDate          string `json:"due_date"`
	PaymentDate      string `json:"payment_date,omitempty"`
	Status           string `json:"status"`
	IsReconciled     bool   `json:"is_reconciled"`
	ReconciliationID string `json:"reconciliation_id,omitempty"`
}

// InvoiceListResponse is returned when listing invoices.
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Count    int               `json:"count"`
}

// SuggestionResponse represents one match candidate.
type SuggestionResponse struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceAmount string `json:"invoice_amount"`
	DueDate       string `json:"due_date"`
	Score         string `json:"score"`
	Method        string `json:"method"`
	Reasoning     string `json:"reasoning,omitempty"`
}

// SuggestionListResponse is returned by the suggestions endpoint.
type SuggestionListResponse struct {
	TransactionID string               `json:"transaction_id"`
	Suggestions   []SuggestionResponse `json:"suggestions"`
}

// ReconciliationResponse represents a reconciliation record.
type ReconciliationResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	InvoiceID     string `json:"invoice_id"`
	MatchScore    string `json:"match_score"`
	MatchMethod   string `json:"match_method"`
	ValidatedBy   string `json:"validated_by"`
	Reasoning     string `json:"reasoning,omitempty"`
	ValidatedAt   string `json:"validated_at"`
	CreatedAt     string `json:"created_at"`
}

// ReconciliationListResponse is returned when listing reconciliations.
type ReconciliationListResponse struct {
	Reconciliations []ReconciliationResponse `json:"reconciliations"`
	Count           int                      `json:"count"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	Total          int            `json:"total"`
	ByMethod       map[string]int `json:"by_method"`
	ByValidator    map[string]int `json:"by_validator"`
	AutomationRate float64        `json:"auto_reconciliation_rate"`
}

const dateLayout = "2006-01-02"

// ToTransactionResponse converts a domain transaction.
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            tx.ID.String(),
		BankAccountID: tx.BankAccountID.String(),
		Date:          tx.Date.Format(dateLayout),
		Description:   tx.Description,
		Amount:        tx.Amount.String(),
		Currency:      tx.Currency,
		IsReconciled:  tx.IsReconciled,
	}
	if tx.ReconciliationID != nil {
		resp.ReconciliationID = tx.ReconciliationID.String()
	}
	return resp
}

// ToInvoiceResponse converts a domain invoice.
func ToInvoiceResponse(invoice *ledger.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            invoice.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		ClientName:    invoice.ClientName,
		ClientEmail:   invoice.ClientEmail,
		Amount:        invoice.Amount.String(),
		TaxAmount:     invoice.TaxAmount.String(),
		TotalAmount:   invoice.TotalAmount.String(),
		Currency:      invoice.Currency,
		IssueDate:     invoice.IssueDate.Format(dateLayout),
		DueDate:       invoice.DueDate.Format(dateLayout),
		Status:        string(invoice.Status),
		IsReconciled:  invoice.IsReconciled,
	}
	if invoice.PaymentDate != nil {
		resp.PaymentDate = invoice.PaymentDate.Format(dateLayout)
	}
	if invoice.ReconciliationID != nil {
		resp.ReconciliationID = invoice.ReconciliationID.String()
	}
	return resp
}

// ToSuggestionResponse converts a match candidate.
func ToSuggestionResponse(c match.Candidate) SuggestionResponse {
	return SuggestionResponse{
		InvoiceID:     c.InvoiceID.String(),
		InvoiceNumber: c.InvoiceNumber,
		InvoiceAmount: c.InvoiceAmount.String(),
		DueDate:       c.InvoiceDueDate.Format(dateLayout),
		Score:         c.Score.String(),
		Method:        string(c.Method),
		Reasoning:     c.Reasoning,
	}
}

// ToReconciliationResponse converts a domain reconciliation record.
func ToReconciliationResponse(rec *ledger.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ID:            rec.ID.String(),
		TransactionID: rec.TransactionID.String(),
		InvoiceID:     rec.InvoiceID.String(),
		MatchScore:    rec.MatchScore.String(),
		MatchMethod:   string(rec.MatchMethod),
		ValidatedBy:   string(rec.ValidatedBy),
		Reasoning:     rec.Reasoning,
		ValidatedAt:   rec.ValidatedAt.UTC().Format(time.RFC3339),
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToStatsResponse converts engine stats.
func ToStatsResponse(stats *reconcile.Stats) StatsResponse {
	resp := StatsResponse{
		Total:          stats.Total,
		ByMethod:       make(map[string]int, len(stats.ByMethod)),
		ByValidator:    make(map[string]int, len(stats.ByValidator)),
		AutomationRate: stats.AutomationRate,
	}
	for method, n := range stats.ByMethod {
		resp.ByMethod[string(method)] = n
	}
	for validator, n := range stats.ByValidator {
		resp.ByValidator[string(validator)] = n
	}
	return resp
}

package dto

// CreateReconciliationRequest is the body of POST /api/reconciliations.
// Amount-like fields travel as decimal strings to avoid float rounding.
type CreateReconciliationRequest struct {
	TransactionID string `json:"transaction_id"`
	InvoiceID     string `json:"invoice_id"`
	MatchScore    string `json:"match_score"`
	MatchMethod   string `json:"match_method"`
	Reasoning     string `json:"reasoning,omitempty"`
}

// CreateInvoiceRequest is the body of POST /api/invoices.
type CreateInvoiceRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email,omitempty"`
	Amount        string `json:"amount"`
	TaxAmount     string `json:"tax_amount,omitempty"`
	Currency      string `json:"currency"`
	IssueDate     string `json:"issue_date"` // YYYY-MM-DD
	DueDate       string `json:"due_date"`   // YYYY-MM-DD
}

// UpdateInvoiceRequest is the body of PATCH /api/invoices/{id}.
// Absent fields leave the invoice unchanged.
type UpdateInvoiceRequest struct {
	ClientName  *string `json:"client_name,omitempty"`
	ClientEmail *string `json:"client_email,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	TaxAmount   *string `json:"tax_amount,omitempty"`
	DueDate     *string `json:"due_date,omitempty"` // YYYY-MM-DD
	Status      *string `json:"status,omitempty"`
}

// Package aimatcher implements the semantic matching capability on top
// of the Anthropic messages API. The engine only sees the
// match.SemanticMatcher interface; swap this client for a stub in tests.
package aimatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/match"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-sonnet-20241022"
	anthropicVersion = "2023-06-01"
)

// Client calls the Anthropic messages API to propose an invoice match.
// The HTTP client timeout bounds every call; a timed-out attempt is
// never retried here because the result is advisory and a retry bills
// a second API call for nothing.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Compile-time check that Client implements SemanticMatcher
var _ match.SemanticMatcher = (*Client)(nil)

// NewClient creates a matcher client. An empty model falls back to the
// default; timeout <= 0 falls back to 30s.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Anthropic messages API types
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// matchReply is the JSON contract the prompt asks the model to honor.
type matchReply struct {
	MatchFound    bool    `json:"match_found"`
	InvoiceNumber string  `json:"invoice_number"`
	MatchScore    float64 `json:"match_score"`
	MatchMethod   string  `json:"match_method"`
	Reasoning     string  `json:"reasoning"`
}

// FindBestMatch asks the model for the single best invoice candidate.
// A nil result with a nil error means no match was found. The caller
// validates the invoice number against its own candidate set and
// ignores the model's method label.
func (c *Client) FindBestMatch(ctx context.Context, tx match.TransactionSummary, invoices []match.InvoiceSummary) (*match.SemanticResult, error) {
	if len(invoices) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   700,
		Temperature: 0.2,
		Messages: []message{
			{Role: "user", Content: buildPrompt(tx, invoices)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matcher request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matcher API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("matcher returned empty content")
	}

	reply, err := parseReply(parsed.Content[0].Text)
	if err != nil {
		return nil, err
	}
	if !reply.MatchFound || reply.InvoiceNumber == "" {
		return nil, nil
	}

	c.logger.Debug("semantic matcher proposed a candidate",
		"invoice_number", reply.InvoiceNumber, "score", reply.MatchScore)

	return &match.SemanticResult{
		InvoiceNumber: reply.InvoiceNumber,
		Score:         decimal.NewFromFloat(reply.MatchScore),
		Reasoning:     reply.Reasoning,
	}, nil
}

// parseReply extracts the JSON object from the model's text, tolerating
// markdown code fences the model sometimes wraps it in.
func parseReply(text string) (*matchReply, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var reply matchReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("malformed matcher reply: %w", err)
	}
	return &reply, nil
}

func buildPrompt(tx match.TransactionSummary, invoices []match.InvoiceSummary) string {
	var sb strings.Builder

	sb.WriteString("You are an expert in bank reconciliation for small businesses.\n\n")
	sb.WriteString("Given this bank transaction, find the best matching invoice.\n\n")
	sb.WriteString("Transaction:\n")
	fmt.Fprintf(&sb, "- Description: %s\n", tx.Description)
	fmt.Fprintf(&sb, "- Amount: %s %s\n", tx.Amount.StringFixed(2), tx.Currency)
	fmt.Fprintf(&sb, "- Date: %s\n\n", tx.Date.Format("2006-01-02"))

	sb.WriteString("Pending invoices:\n")
	for _, inv := range invoices {
		fmt.Fprintf(&sb, "- Invoice %s: %s, %s %s, due %s\n",
			inv.InvoiceNumber, inv.ClientName, inv.TotalAmount.StringFixed(2),
			inv.Currency, inv.DueDate.Format("2006-01-02"))
	}

	sb.WriteString(`
Rules:
- Amounts should match (within 5% tolerance)
- Dates should be close (within 30 days)
- Look for the client name or invoice number in the description
- Consider partial payments

Respond ONLY with valid JSON (no markdown):
{
  "match_found": true or false,
  "invoice_number": "INV-XXX" or null,
  "match_score": 0.95,
  "match_method": "fuzzy_ai",
  "reasoning": "Brief explanation"
}`)

	return sb.String()
}

package aimatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlink/internal/domain/match"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", "", time.Second, nil)
	client.baseURL = server.URL
	return client
}

func testSummaries() (match.TransactionSummary, []match.InvoiceSummary) {
	tx := match.TransactionSummary{
		Description: "VIR ACME CORP",
		Amount:      decimal.RequireFromString("1000.00"),
		Currency:    "EUR",
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	invoices := []match.InvoiceSummary{{
		InvoiceNumber: "INV-2026-001",
		ClientName:    "ACME Corp",
		TotalAmount:   decimal.RequireFromString("980.00"),
		Currency:      "EUR",
		DueDate:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}}
	return tx, invoices
}

func modelReply(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return body
}

func TestClient_FindBestMatch(t *testing.T) {
	// Arrange
	var gotVersion, gotKey string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write(modelReply(`{"match_found": true, "invoice_number": "INV-2026-001", "match_score": 0.92, "match_method": "fuzzy_ai", "reasoning": "client name in description"}`))
	})
	tx, invoices := testSummaries()

	// Act
	result, err := client.FindBestMatch(context.Background(), tx, invoices)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "INV-2026-001", result.InvoiceNumber)
	assert.True(t, result.Score.Equal(decimal.RequireFromString("0.92")))
	assert.Equal(t, "client name in description", result.Reasoning)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "test-key", gotKey)
}

func TestClient_FindBestMatch_MarkdownFencedReply(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(modelReply("```json\n{\"match_found\": true, \"invoice_number\": \"INV-2026-001\", \"match_score\": 0.8, \"reasoning\": \"x\"}\n```"))
	})
	tx, invoices := testSummaries()

	result, err := client.FindBestMatch(context.Background(), tx, invoices)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "INV-2026-001", result.InvoiceNumber)
}

func TestClient_FindBestMatch_NoMatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(modelReply(`{"match_found": false, "invoice_number": null}`))
	})
	tx, invoices := testSummaries()

	result, err := client.FindBestMatch(context.Background(), tx, invoices)

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_FindBestMatch_MalformedReply(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(modelReply("I think invoice INV-2026-001 matches best."))
	})
	tx, invoices := testSummaries()

	result, err := client.FindBestMatch(context.Background(), tx, invoices)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClient_FindBestMatch_APIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"type": "overloaded_error"}}`))
	})
	tx, invoices := testSummaries()

	result, err := client.FindBestMatch(context.Background(), tx, invoices)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClient_FindBestMatch_NoInvoices(t *testing.T) {
	called := false
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	tx, _ := testSummaries()
	result, err := client.FindBestMatch(context.Background(), tx, nil)

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, called, "no API call without candidates")
}

package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlink/internal/domain/ledger"
)

// stubMatcher is a deterministic SemanticMatcher for tests.
type stubMatcher struct {
	result *SemanticResult
	err    error

	called      bool
	gotInvoices []InvoiceSummary
}

func (s *stubMatcher) FindBestMatch(_ context.Context, _ TransactionSummary, invoices []InvoiceSummary) (*SemanticResult, error) {
	s.called = true
	s.gotInvoices = invoices
	return s.result, s.err
}

func TestFuzzyStrategy_BestMatchReturned(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-9", "980.00", "EUR", time.Now())
	stub := &stubMatcher{result: &SemanticResult{
		InvoiceNumber: "INV-9",
		Score:         decimal.RequireFromString("0.92"),
		Reasoning:     "client name in description, amount within 2%",
	}}
	strategy := NewFuzzyStrategy(stub, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "VIR ACME CORP")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, invoice.ID, candidates[0].InvoiceID)
	assert.Equal(t, ledger.MatchFuzzyAI, candidates[0].Method)
	assert.True(t, candidates[0].Score.Equal(decimal.RequireFromString("0.92")))
	assert.Equal(t, "client name in description, amount within 2%", candidates[0].Reasoning)
	assert.Len(t, stub.gotInvoices, 1)
}

func TestFuzzyStrategy_UnknownInvoiceNumber_Discarded(t *testing.T) {
	// Arrange - the capability names an invoice we never offered
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	stub := &stubMatcher{result: &SemanticResult{
		InvoiceNumber: "INV-9",
		Score:         decimal.RequireFromString("0.92"),
	}}
	strategy := NewFuzzyStrategy(stub, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert
	assert.Empty(t, candidates)
}

func TestFuzzyStrategy_MatcherError_DegradesSilently(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	stub := &stubMatcher{err: errors.New("api unavailable")}
	strategy := NewFuzzyStrategy(stub, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert - no candidates, no panic, no error surfaced
	assert.Empty(t, candidates)
	assert.True(t, stub.called)
}

func TestFuzzyStrategy_NoMatchFromCapability(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	stub := &stubMatcher{}
	strategy := NewFuzzyStrategy(stub, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert
	assert.Empty(t, candidates)
}

func TestFuzzyStrategy_OutOfRangeScore_Discarded(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	stub := &stubMatcher{result: &SemanticResult{
		InvoiceNumber: "INV-1",
		Score:         decimal.RequireFromString("1.20"),
	}}
	strategy := NewFuzzyStrategy(stub, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert
	assert.Empty(t, candidates)
}

func TestFuzzyStrategy_NilMatcher_Disabled(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	strategy := NewFuzzyStrategy(nil, time.Second, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert
	assert.Empty(t, candidates)
}

// slowMatcher blocks until its context is cancelled.
type slowMatcher struct{}

func (slowMatcher) FindBestMatch(ctx context.Context, _ TransactionSummary, _ []InvoiceSummary) (*SemanticResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFuzzyStrategy_Timeout_YieldsNothing(t *testing.T) {
	// Arrange
	invoice := makeInvoice("INV-1", "980.00", "EUR", time.Now())
	strategy := NewFuzzyStrategy(slowMatcher{}, 10*time.Millisecond, nil)
	tx := makeTransaction("1000.00", "EUR", "whatever")

	// Act
	start := time.Now()
	candidates := strategy.Match(context.Background(), tx, []*ledger.Invoice{invoice})

	// Assert - bounded by the strategy timeout, empty result
	assert.Empty(t, candidates)
	assert.Less(t, time.Since(start), time.Second)
}

package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlink/internal/domain/ledger"
)

func candidate(number, score string, method ledger.MatchMethod, due time.Time) Candidate {
	return Candidate{
		InvoiceNumber:  number,
		Score:          decimal.RequireFromString(score),
		Method:         method,
		InvoiceDueDate: due,
	}
}

func TestRank_ScoreDescending(t *testing.T) {
	// Arrange
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		candidate("INV-1", "0.85", ledger.MatchReference, due),
		candidate("INV-2", "1.00", ledger.MatchExact, due),
		candidate("INV-3", "0.92", ledger.MatchFuzzyAI, due),
	}

	// Act
	ranked := Rank(candidates)

	// Assert
	require.Len(t, ranked, 3)
	assert.Equal(t, "INV-2", ranked[0].InvoiceNumber)
	assert.Equal(t, "INV-3", ranked[1].InvoiceNumber)
	assert.Equal(t, "INV-1", ranked[2].InvoiceNumber)
}

func TestRank_TieBrokenByMethodPriority(t *testing.T) {
	// Arrange - same score, different strategies
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		candidate("INV-fuzzy", "0.90", ledger.MatchFuzzyAI, due),
		candidate("INV-exact", "0.90", ledger.MatchExact, due),
		candidate("INV-ref", "0.90", ledger.MatchReference, due),
	}

	// Act
	ranked := Rank(candidates)

	// Assert - exact > reference > fuzzy_ai
	require.Len(t, ranked, 3)
	assert.Equal(t, "INV-exact", ranked[0].InvoiceNumber)
	assert.Equal(t, "INV-ref", ranked[1].InvoiceNumber)
	assert.Equal(t, "INV-fuzzy", ranked[2].InvoiceNumber)
}

func TestRank_TieBrokenByEarliestDueDate(t *testing.T) {
	// Arrange - same score and method, different due dates
	candidates := []Candidate{
		candidate("INV-late", "0.85", ledger.MatchReference, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		candidate("INV-early", "0.85", ledger.MatchReference, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
	}

	// Act
	ranked := Rank(candidates)

	// Assert
	require.Len(t, ranked, 2)
	assert.Equal(t, "INV-early", ranked[0].InvoiceNumber)
}

func TestRank_TruncatesToFive(t *testing.T) {
	// Arrange
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var candidates []Candidate
	for _, score := range []string{"0.85", "0.85", "0.85", "0.85", "0.85", "0.85", "0.85"} {
		candidates = append(candidates, candidate("INV", score, ledger.MatchReference, due))
	}

	// Act
	ranked := Rank(candidates)

	// Assert
	assert.Len(t, ranked, MaxSuggestions)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	// Arrange
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		candidate("INV-1", "0.85", ledger.MatchReference, due),
		candidate("INV-2", "1.00", ledger.MatchExact, due),
	}

	// Act
	_ = Rank(candidates)

	// Assert
	assert.Equal(t, "INV-1", candidates[0].InvoiceNumber)
}

func TestRank_EmptyInput(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

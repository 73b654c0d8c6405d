package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconciliation_Valid(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rec, err := NewReconciliation(
		uuid.New(), uuid.New(), uuid.New(),
		decimal.RequireFromString("0.95"),
		MatchExact, ValidatorAI, "", now,
	)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, MatchExact, rec.MatchMethod)
	assert.Equal(t, ValidatorAI, rec.ValidatedBy)
	assert.Equal(t, now, rec.ValidatedAt)
}

func TestNewReconciliation_ScoreOutOfRange(t *testing.T) {
	for _, score := range []string{"-0.01", "1.01", "2", "-1"} {
		_, err := NewReconciliation(
			uuid.New(), uuid.New(), uuid.New(),
			decimal.RequireFromString(score),
			MatchExact, ValidatorAI, "", time.Now(),
		)
		assert.ErrorIs(t, err, ErrScoreOutOfRange, "score %s must be rejected", score)
	}
}

func TestNewReconciliation_ScoreBoundariesInclusive(t *testing.T) {
	for _, score := range []string{"0", "1", "0.0", "1.00"} {
		_, err := NewReconciliation(
			uuid.New(), uuid.New(), uuid.New(),
			decimal.RequireFromString(score),
			MatchManual, ValidatorUser, "", time.Now(),
		)
		assert.NoError(t, err, "score %s is valid", score)
	}
}

func TestNewReconciliation_UnknownMethod(t *testing.T) {
	_, err := NewReconciliation(
		uuid.New(), uuid.New(), uuid.New(),
		decimal.RequireFromString("0.5"),
		MatchMethod("guesswork"), ValidatorUser, "", time.Now(),
	)
	assert.ErrorIs(t, err, ErrInvalidMatchMethod)
}

func TestNewReconciliation_FuzzyRequiresReasoning(t *testing.T) {
	_, err := NewReconciliation(
		uuid.New(), uuid.New(), uuid.New(),
		decimal.RequireFromString("0.9"),
		MatchFuzzyAI, ValidatorUser, "", time.Now(),
	)
	assert.ErrorIs(t, err, ErrReasoningRequired)

	_, err = NewReconciliation(
		uuid.New(), uuid.New(), uuid.New(),
		decimal.RequireFromString("0.9"),
		MatchFuzzyAI, ValidatorUser, "client name matched", time.Now(),
	)
	assert.NoError(t, err)
}

func TestMatchMethod_Priority(t *testing.T) {
	assert.Less(t, MatchExact.Priority(), MatchReference.Priority())
	assert.Less(t, MatchReference.Priority(), MatchFuzzyAI.Priority())
	assert.Less(t, MatchFuzzyAI.Priority(), MatchManual.Priority())
}

func TestInvoice_RecalculateTotal(t *testing.T) {
	inv := &Invoice{
		Amount:    decimal.RequireFromString("820.00"),
		TaxAmount: decimal.RequireFromString("164.00"),
	}

	inv.RecalculateTotal()

	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("984.00")))
}

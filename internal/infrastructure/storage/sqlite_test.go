package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlink/internal/domain/ledger"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedAccount(t *testing.T, store *Storage, userID uuid.UUID) *ledger.BankAccount {
	t.Helper()
	account := &ledger.BankAccount{
		ID:        uuid.New(),
		UserID:    userID,
		BankName:  "Banque Test",
		Currency:  "EUR",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveBankAccount(context.Background(), account))
	return account
}

func seedTransaction(t *testing.T, store *Storage, accountID uuid.UUID, amount string) *ledger.Transaction {
	t.Helper()
	tx := &ledger.Transaction{
		ID:            uuid.New(),
		BankAccountID: accountID,
		Date:          time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		Description:   "VIR INV-2026-001 ACME",
		Amount:        decimal.RequireFromString(amount),
		Currency:      "EUR",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.SaveTransaction(context.Background(), tx))
	return tx
}

func seedInvoice(t *testing.T, store *Storage, userID uuid.UUID, number, total string) *ledger.Invoice {
	t.Helper()
	totalAmount := decimal.RequireFromString(total)
	invoice := &ledger.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		InvoiceNumber: number,
		ClientName:    "ACME Corp",
		Amount:        totalAmount,
		TaxAmount:     decimal.Zero,
		TotalAmount:   totalAmount,
		Currency:      "EUR",
		IssueDate:     time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Status:        ledger.InvoicePending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.SaveInvoice(context.Background(), invoice))
	return invoice
}

func makeReconciliation(t *testing.T, userID, txID, invID uuid.UUID) *ledger.Reconciliation {
	t.Helper()
	rec, err := ledger.NewReconciliation(userID, txID, invID,
		decimal.RequireFromString("1.00"), ledger.MatchExact, ledger.ValidatorAI, "", time.Now().UTC())
	require.NoError(t, err)
	return rec
}

func TestStorage_TransactionRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)
	tx := seedTransaction(t, store, account.ID, "-1000.00")

	got, err := store.GetTransaction(context.Background(), tx.ID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-1000.00")))
	assert.False(t, got.IsReconciled)
	assert.Nil(t, got.ReconciliationID)
}

func TestStorage_GetTransaction_Missing(t *testing.T) {
	store := newTestStorage(t)

	got, err := store.GetTransaction(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorage_DuplicateInvoiceNumber(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	seedInvoice(t, store, userID, "INV-2026-001", "1000.00")

	dup := &ledger.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		InvoiceNumber: "INV-2026-001",
		ClientName:    "Other",
		Amount:        decimal.NewFromInt(5),
		TaxAmount:     decimal.Zero,
		TotalAmount:   decimal.NewFromInt(5),
		Currency:      "EUR",
		IssueDate:     time.Now().UTC(),
		DueDate:       time.Now().UTC(),
		Status:        ledger.InvoicePending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	err := store.SaveInvoice(context.Background(), dup)

	assert.ErrorIs(t, err, ledger.ErrDuplicateInvoiceNumber)

	// Same number for a different user is fine
	dup.ID = uuid.New()
	dup.UserID = uuid.New()
	assert.NoError(t, store.SaveInvoice(context.Background(), dup))
}

func TestStorage_ListOpenInvoices_FiltersAndOrders(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()

	early := seedInvoice(t, store, userID, "INV-1", "100.00")
	late := seedInvoice(t, store, userID, "INV-2", "200.00")
	late.DueDate = late.DueDate.AddDate(0, 1, 0)
	require.NoError(t, store.UpdateInvoice(context.Background(), late))

	paid := seedInvoice(t, store, userID, "INV-3", "300.00")
	paid.Status = ledger.InvoicePaid
	require.NoError(t, store.UpdateInvoice(context.Background(), paid))

	seedInvoice(t, store, uuid.New(), "INV-4", "400.00") // other user

	open, err := store.ListOpenInvoices(context.Background(), userID, 0)

	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, early.InvoiceNumber, open[0].InvoiceNumber)
	assert.Equal(t, late.InvoiceNumber, open[1].InvoiceNumber)
}

func TestStorage_MarkOverdue(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	invoice := seedInvoice(t, store, userID, "INV-1", "100.00")

	flipped, err := store.MarkOverdue(context.Background(), userID, invoice.DueDate.AddDate(0, 0, 1))

	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	got, err := store.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceOverdue, got.Status)
}

func TestStorage_CreateReconciliation_FlipsBothSides(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)
	tx := seedTransaction(t, store, account.ID, "1000.00")
	invoice := seedInvoice(t, store, userID, "INV-2026-001", "1000.00")
	rec := makeReconciliation(t, userID, tx.ID, invoice.ID)

	require.NoError(t, store.CreateReconciliation(context.Background(), rec))

	gotTx, err := store.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, gotTx.IsReconciled)
	require.NotNil(t, gotTx.ReconciliationID)
	assert.Equal(t, rec.ID, *gotTx.ReconciliationID)

	gotInv, err := store.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.True(t, gotInv.IsReconciled)
	assert.Equal(t, ledger.InvoicePaid, gotInv.Status)
	require.NotNil(t, gotInv.PaymentDate)
	// Day granularity of the transaction date
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), gotInv.PaymentDate.UTC())
}

func TestStorage_CreateReconciliation_TransactionAlreadyClaimed(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)
	tx := seedTransaction(t, store, account.ID, "1000.00")
	first := seedInvoice(t, store, userID, "INV-1", "1000.00")
	second := seedInvoice(t, store, userID, "INV-2", "1000.00")

	require.NoError(t, store.CreateReconciliation(context.Background(),
		makeReconciliation(t, userID, tx.ID, first.ID)))

	err := store.CreateReconciliation(context.Background(),
		makeReconciliation(t, userID, tx.ID, second.ID))

	assert.ErrorIs(t, err, ledger.ErrTransactionReconciled)
	assert.ErrorIs(t, err, ledger.ErrConflict)

	// The losing attempt left no partial state on the second invoice
	gotInv, getErr := store.GetInvoice(context.Background(), second.ID)
	require.NoError(t, getErr)
	assert.False(t, gotInv.IsReconciled)
	assert.Equal(t, ledger.InvoicePending, gotInv.Status)
}

func TestStorage_CreateReconciliation_InvoiceAlreadyClaimed(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)
	first := seedTransaction(t, store, account.ID, "1000.00")
	second := seedTransaction(t, store, account.ID, "1000.00")
	invoice := seedInvoice(t, store, userID, "INV-1", "1000.00")

	require.NoError(t, store.CreateReconciliation(context.Background(),
		makeReconciliation(t, userID, first.ID, invoice.ID)))

	err := store.CreateReconciliation(context.Background(),
		makeReconciliation(t, userID, second.ID, invoice.ID))

	assert.ErrorIs(t, err, ledger.ErrInvoiceReconciled)

	gotTx, getErr := store.GetTransaction(context.Background(), second.ID)
	require.NoError(t, getErr)
	assert.False(t, gotTx.IsReconciled)
}

func TestStorage_CreateReconciliation_ConcurrentClaims_OneWinner(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)
	tx := seedTransaction(t, store, account.ID, "1000.00")
	first := seedInvoice(t, store, userID, "INV-1", "1000.00")
	second := seedInvoice(t, store, userID, "INV-2", "1000.00")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, invID := range []uuid.UUID{first.ID, second.ID} {
		go func(i int, invID uuid.UUID) {
			defer wg.Done()
			errs[i] = store.CreateReconciliation(context.Background(),
				makeReconciliation(t, userID, tx.ID, invID))
		}(i, invID)
	}
	wg.Wait()

	// Exactly one success, one conflict
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ledger.ErrConflict)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestStorage_ReconciliationStats_Grouping(t *testing.T) {
	store := newTestStorage(t)
	userID := uuid.New()
	account := seedAccount(t, store, userID)

	link := func(number, amount string, method ledger.MatchMethod, validator ledger.Validator) {
		tx := seedTransaction(t, store, account.ID, amount)
		invoice := seedInvoice(t, store, userID, number, amount)
		rec, err := ledger.NewReconciliation(userID, tx.ID, invoice.ID,
			decimal.RequireFromString("0.9"), method, validator, "close amount and date", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, store.CreateReconciliation(context.Background(), rec))
	}

	link("INV-1", "100.00", ledger.MatchExact, ledger.ValidatorAI)
	link("INV-2", "200.00", ledger.MatchExact, ledger.ValidatorAI)
	link("INV-3", "300.00", ledger.MatchFuzzyAI, ledger.ValidatorUser)

	stats, err := store.ReconciliationStats(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByMethod[ledger.MatchExact])
	assert.Equal(t, 1, stats.ByMethod[ledger.MatchFuzzyAI])
	assert.Equal(t, 2, stats.ByValidator[ledger.ValidatorAI])
	assert.Equal(t, 1, stats.ByValidator[ledger.ValidatorUser])
}

func TestStorage_ReconciliationStats_EmptyUser(t *testing.T) {
	store := newTestStorage(t)

	stats, err := store.ReconciliationStats(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.ByMethod)
	assert.Empty(t, stats.ByValidator)
}

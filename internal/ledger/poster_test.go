package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/ledger/ledgertest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostUpdatesBalancesByNormalSide(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	cash := store.AccountByCode(ledger.CodeCash)
	expense := store.AccountByCode(ledger.CodeMaterialsExpense)

	ref := uuid.New()
	entry, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "خرید مواد اولیه",
		Module:      "PURCHASE",
		Reference:   ref,
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, AccountName: expense.Name, Debit: 1_500_000},
			{AccountID: cash.ID, AccountName: cash.Name, Credit: 1_500_000},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.Len(t, entry.Lines, 2)

	// Debit increases the expense account, credit decreases the asset account.
	require.Equal(t, int64(1_500_000), store.Balance(ledger.CodeMaterialsExpense))
	require.Equal(t, int64(-1_500_000), store.Balance(ledger.CodeCash))

	stored, found := store.EntryByReference("PURCHASE", ref)
	require.True(t, found)
	require.Equal(t, sumDebits(stored), sumCredits(stored))
}

func TestPostCreditIncreasesLiability(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	payable := store.AccountByCode(ledger.CodeAccountsPayable)
	expense := store.AccountByCode(ledger.CodeGeneralExpense)

	_, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Module:    "PURCHASE",
		Reference: uuid.New(),
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, AccountName: expense.Name, Debit: 2_000_000},
			{AccountID: payable.ID, AccountName: payable.Name, Credit: 2_000_000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2_000_000), store.Balance(ledger.CodeAccountsPayable))
}

func TestPostRejectsUnbalancedLines(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	cash := store.AccountByCode(ledger.CodeCash)
	expense := store.AccountByCode(ledger.CodeGeneralExpense)

	before := store.Balances()
	_, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Module:    "PURCHASE",
		Reference: uuid.New(),
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, Debit: 1000},
			{AccountID: cash.ID, Credit: 900},
		},
	})
	require.ErrorIs(t, err, ledger.ErrUnbalanced)
	require.Equal(t, before, store.Balances())
}

func TestPostRejectsLineWithBothSides(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	cash := store.AccountByCode(ledger.CodeCash)
	expense := store.AccountByCode(ledger.CodeGeneralExpense)

	_, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Module:    "PURCHASE",
		Reference: uuid.New(),
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, Debit: 1000, Credit: 1000},
			{AccountID: cash.ID, Credit: 0},
		},
	})
	require.Error(t, err)
}

func TestPostRejectsDuplicateReference(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	cash := store.AccountByCode(ledger.CodeCash)
	expense := store.AccountByCode(ledger.CodeGeneralExpense)
	ref := uuid.New()

	input := ledger.PostingInput{
		Module:    "PURCHASE",
		Reference: ref,
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, Debit: 1000},
			{AccountID: cash.ID, Credit: 1000},
		},
	}
	_, err := poster.Post(context.Background(), store, input)
	require.NoError(t, err)
	_, err = poster.Post(context.Background(), store, input)
	require.ErrorIs(t, err, ledger.ErrReferencePosted)
}

func TestPostAppliesPartyDeltas(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())

	supplierID := uuid.New()
	store.AddParty(ledger.KindSupplier, supplierID, 0)

	payable := store.AccountByCode(ledger.CodeAccountsPayable)
	expense := store.AccountByCode(ledger.CodeGeneralExpense)

	_, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Module:    "PURCHASE",
		Reference: uuid.New(),
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, Debit: 750_000},
			{AccountID: payable.ID, Credit: 750_000},
		},
		PartyDeltas: []ledger.PartyDelta{
			{Kind: ledger.KindSupplier, PartyID: supplierID, Delta: 750_000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(750_000), store.PartyBalance(supplierID))
}

func TestUnpostRoundTripRestoresBalances(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	poster := ledger.NewPoster(testLogger())
	reverser := ledger.NewReverser(testLogger())

	cash := store.AccountByCode(ledger.CodeCash)
	bank := store.AccountByCode(ledger.CodeBank)
	revenue := store.AccountByCode(ledger.CodeCafeRevenue)
	discount := store.AccountByCode(ledger.CodeSalesDiscount)

	before := store.Balances()
	ref := uuid.New()
	_, err := poster.Post(context.Background(), store, ledger.PostingInput{
		Module:    "SALE",
		Reference: ref,
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, AccountName: cash.Name, Debit: 4_000_000},
			{AccountID: bank.ID, AccountName: bank.Name, Debit: 500_000},
			{AccountID: discount.ID, AccountName: discount.Name, Debit: 300_000},
			{AccountID: revenue.ID, AccountName: revenue.Name, Credit: 4_800_000},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, before, store.Balances())

	entry, err := reverser.Unpost(context.Background(), store, "SALE", ref)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 4)

	require.Equal(t, before, store.Balances())
	_, found := store.EntryByReference("SALE", ref)
	require.False(t, found)
}

func TestUnpostMissingReference(t *testing.T) {
	store := ledgertest.NewStore(ledger.DefaultChart())
	reverser := ledger.NewReverser(testLogger())

	_, err := reverser.Unpost(context.Background(), store, "SALE", uuid.New())
	require.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func sumDebits(entry ledger.JournalEntry) int64 {
	var total int64
	for _, line := range entry.Lines {
		total += line.Debit
	}
	return total
}

func sumCredits(entry ledger.JournalEntry) int64 {
	var total int64
	for _, line := range entry.Lines {
		total += line.Credit
	}
	return total
}

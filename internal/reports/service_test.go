package reports_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/reports"
)

type fakeLedgerRepo struct {
	accounts     []ledger.Account
	journal      []ledger.JournalEntry
	accountCalls int
	journalCalls int
}

func (f *fakeLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	panic("reports are read-only")
}

func (f *fakeLedgerRepo) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	f.accountCalls++
	return f.accounts, nil
}

func (f *fakeLedgerRepo) ListJournal(ctx context.Context, limit int) ([]ledger.JournalEntry, error) {
	f.journalCalls++
	if limit < len(f.journal) {
		return f.journal[:limit], nil
	}
	return f.journal, nil
}

type fakeReportsRepo struct {
	accounts map[int64]ledger.Account
	lines    map[int64][]reports.AccountLine
}

func (f *fakeReportsRepo) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeReportsRepo) ListAccountLines(ctx context.Context, accountID int64) ([]reports.AccountLine, error) {
	return f.lines[accountID], nil
}

func newCache(t *testing.T) *reports.Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return reports.NewCache(client, time.Minute)
}

func testAccounts() []ledger.Account {
	return []ledger.Account{
		{ID: 1, Code: "1010", Name: "صندوق", Type: ledger.AccountTypeAsset, Balance: 4_500_000, IsActive: true},
		{ID: 2, Code: "4010", Name: "درآمد کافه", Type: ledger.AccountTypeRevenue, Balance: 4_800_000, IsActive: true},
		{ID: 3, Code: "5030", Name: "تخفیف فروش", Type: ledger.AccountTypeExpense, Balance: 300_000, IsActive: true},
		{ID: 4, Code: "9999", Name: "بسته", Type: ledger.AccountTypeAsset, Balance: 99, IsActive: false},
	}
}

func newService(t *testing.T, ledgerRepo *fakeLedgerRepo, repo *fakeReportsRepo) *reports.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return reports.NewService(ledgerRepo, repo, newCache(t), logger)
}

func TestTrialBalanceFoots(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{accounts: testAccounts()}
	service := newService(t, ledgerRepo, &fakeReportsRepo{})

	tb, err := service.TrialBalance(context.Background())
	require.NoError(t, err)

	require.Len(t, tb.Rows, 3, "inactive accounts excluded")
	require.Equal(t, int64(4_800_000), tb.TotalDebit)
	require.Equal(t, int64(4_800_000), tb.TotalCredit)
	require.Equal(t, tb.TotalDebit, tb.TotalCredit)
}

func TestTrialBalanceServedFromCacheUntilBump(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{accounts: testAccounts()}
	service := newService(t, ledgerRepo, &fakeReportsRepo{})

	_, err := service.TrialBalance(context.Background())
	require.NoError(t, err)
	_, err = service.TrialBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, ledgerRepo.accountCalls)

	service.Invalidate(context.Background())
	_, err = service.TrialBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ledgerRepo.accountCalls)
}

func TestAccountCardRunningBalance(t *testing.T) {
	repo := &fakeReportsRepo{
		accounts: map[int64]ledger.Account{
			1: {ID: 1, Code: "1010", Name: "صندوق", Type: ledger.AccountTypeAsset, Balance: 3_000_000, IsActive: true},
		},
		lines: map[int64][]reports.AccountLine{
			1: {
				{EntryID: 1, Description: "فروش کافه", Debit: 4_500_000},
				{EntryID: 2, Description: "خرید", Credit: 1_500_000},
			},
		},
	}
	service := newService(t, &fakeLedgerRepo{}, repo)

	card, err := service.AccountCard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, card.Lines, 2)
	require.Equal(t, int64(4_500_000), card.Lines[0].Balance)
	require.Equal(t, int64(3_000_000), card.Lines[1].Balance)
	require.Equal(t, card.Account.Balance, card.Lines[1].Balance)
}

func TestAccountCardMissingAccount(t *testing.T) {
	service := newService(t, &fakeLedgerRepo{}, &fakeReportsRepo{accounts: map[int64]ledger.Account{}})

	_, err := service.AccountCard(context.Background(), 42)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestSummaryCombinesProjections(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{
		accounts: testAccounts(),
		journal: []ledger.JournalEntry{
			{ID: 1, Description: "فروش کافه", Module: "SALE"},
		},
	}
	service := newService(t, ledgerRepo, &fakeReportsRepo{})

	out, err := service.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, out.RecentJournal, 1)
	require.Equal(t, out.TrialBalance.TotalDebit, out.TrialBalance.TotalCredit)
}

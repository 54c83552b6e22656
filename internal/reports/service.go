package reports

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
)

// TrialBalanceRow places an account's balance on its normal side.
type TrialBalanceRow struct {
	Code    string             `json:"code"`
	Name    string             `json:"name"`
	Type    ledger.AccountType `json:"type"`
	Debit   int64              `json:"debit"`
	Credit  int64              `json:"credit"`
	Balance int64              `json:"balance"`
}

// TrialBalance is the full trial balance. TotalDebit equals TotalCredit when
// the books balance.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  int64             `json:"total_debit"`
	TotalCredit int64             `json:"total_credit"`
}

// AccountCard is the rendered ledger of one account with running balances.
type AccountCard struct {
	Account ledger.Account `json:"account"`
	Lines   []AccountLine  `json:"lines"`
}

// Summary bundles the dashboard projections.
type Summary struct {
	TrialBalance  TrialBalance          `json:"trial_balance"`
	RecentJournal []ledger.JournalEntry `json:"recent_journal"`
}

// Service builds read-only report projections over the ledger, cached in
// Redis.
type Service struct {
	ledgerRepo ledger.Repository
	repo       Repository
	cache      *Cache
	logger     *slog.Logger
}

// NewService builds a Service.
func NewService(ledgerRepo ledger.Repository, repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{ledgerRepo: ledgerRepo, repo: repo, cache: cache, logger: logger}
}

// Journal returns the most recent journal entries with their lines.
func (s *Service) Journal(ctx context.Context, limit int) ([]ledger.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	key, err := s.cache.BuildKey(ctx, "reports", "journal", strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var out []ledger.JournalEntry
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.ledgerRepo.ListJournal(ctx, limit)
	})
	return out, err
}

// TrialBalance projects every active account onto its normal side.
func (s *Service) TrialBalance(ctx context.Context) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "trial_balance")
	if err != nil {
		return TrialBalance{}, err
	}
	var out TrialBalance
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		accounts, err := s.ledgerRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		return buildTrialBalance(accounts), nil
	})
	return out, err
}

// AccountCard renders one account's ledger with a running balance.
func (s *Service) AccountCard(ctx context.Context, accountID int64) (AccountCard, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "account_card", strconv.FormatInt(accountID, 10))
	if err != nil {
		return AccountCard{}, err
	}
	var out AccountCard
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		lines, err := s.repo.ListAccountLines(ctx, accountID)
		if err != nil {
			return nil, err
		}
		var running int64
		for i := range lines {
			running += ledger.LineDelta(account.Type, lines[i].Debit, lines[i].Credit)
			lines[i].Balance = running
		}
		return AccountCard{Account: account, Lines: lines}, nil
	})
	return out, err
}

// Summary fetches the trial balance and recent journal concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb, err := s.TrialBalance(ctx)
		if err != nil {
			return err
		}
		out.TrialBalance = tb
		return nil
	})
	g.Go(func() error {
		journal, err := s.Journal(ctx, 20)
		if err != nil {
			return err
		}
		out.RecentJournal = journal
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

func buildTrialBalance(accounts []ledger.Account) TrialBalance {
	var tb TrialBalance
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		row := TrialBalanceRow{
			Code:    account.Code,
			Name:    account.Name,
			Type:    account.Type,
			Balance: account.Balance,
		}
		if ledger.NormalSide(account.Type) == ledger.SideDebit {
			row.Debit = account.Balance
		} else {
			row.Credit = account.Balance
		}
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
		tb.Rows = append(tb.Rows, row)
	}
	return tb
}

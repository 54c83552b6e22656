package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Resolver picks accounts from a chart snapshot at posting time. Resolution
// is deterministic for a fixed chart (candidates are scanned in code order)
// and every fallback is logged, since silent fallback masks misconfiguration.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// ByCode returns the active account with the given well-known code.
func (r *Resolver) ByCode(accounts []Account, code string) (Account, error) {
	for _, account := range accounts {
		if account.IsActive && account.Code == code {
			return account, nil
		}
	}
	return Account{}, fmt.Errorf("code %s: %w", code, ErrAccountNotConfigured)
}

// ByID returns the active account with the given id.
func (r *Resolver) ByID(accounts []Account, id int64) (Account, error) {
	for _, account := range accounts {
		if account.IsActive && account.ID == id {
			return account, nil
		}
	}
	return Account{}, fmt.Errorf("id %d: %w", id, ErrAccountNotFound)
}

// ExpenseByCategory matches a purchase category to an expense account by
// normalized name. Fallback order: the general expense account, then the
// first expense account in code order.
func (r *Resolver) ExpenseByCategory(accounts []Account, category string) (Account, error) {
	expenses := filterByType(accounts, AccountTypeExpense)
	if len(expenses) == 0 {
		return Account{}, fmt.Errorf("no expense accounts: %w", ErrAccountNotConfigured)
	}
	wanted := NormalizeName(category)
	if wanted != "" {
		for _, account := range expenses {
			if NormalizeName(account.Name) == wanted {
				return account, nil
			}
		}
	}
	for _, account := range expenses {
		if account.Code == CodeGeneralExpense {
			r.logger.Warn("expense category fell back to general expense account",
				slog.String("category", category),
				slog.String("account_code", account.Code))
			return account, nil
		}
	}
	r.logger.Warn("expense category fell back to first expense account",
		slog.String("category", category),
		slog.String("account_code", expenses[0].Code))
	return expenses[0], nil
}

// PaymentAccount resolves the asset account money leaves from. With a
// preferred id it must resolve to an asset account; otherwise the bank
// account is tried, then the first asset account in code order.
func (r *Resolver) PaymentAccount(accounts []Account, preferredID *int64) (Account, error) {
	if preferredID != nil {
		account, err := r.ByID(accounts, *preferredID)
		if err != nil {
			return Account{}, err
		}
		if account.Type != AccountTypeAsset {
			return Account{}, fmt.Errorf("account %s is not an asset account: %w", account.Code, ErrAccountNotConfigured)
		}
		return account, nil
	}
	if bank, err := r.ByCode(accounts, CodeBank); err == nil {
		r.logger.Warn("payment account not selected, falling back to bank account",
			slog.String("account_code", bank.Code))
		return bank, nil
	}
	assets := filterByType(accounts, AccountTypeAsset)
	if len(assets) == 0 {
		return Account{}, fmt.Errorf("no asset accounts: %w", ErrAccountNotConfigured)
	}
	r.logger.Warn("payment account not selected, falling back to first asset account",
		slog.String("account_code", assets[0].Code))
	return assets[0], nil
}

// ControlAccount maps a party kind to its balance-sheet control account.
func (r *Resolver) ControlAccount(accounts []Account, kind EntityKind) (Account, error) {
	switch kind {
	case KindSupplier:
		return r.ByCode(accounts, CodeAccountsPayable)
	case KindCustomer:
		return r.ByCode(accounts, CodeAccountsReceivable)
	case KindEmployee:
		return r.ByCode(accounts, CodeEmployeePayable)
	default:
		return Account{}, fmt.Errorf("kind %s has no control account: %w", kind, ErrAccountNotConfigured)
	}
}

func filterByType(accounts []Account, t AccountType) []Account {
	var out []Account
	for _, account := range accounts {
		if account.IsActive && account.Type == t {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormalizeName folds a Persian account or category name into a canonical
// form: NFKC, width folding, Arabic yeh/kaf unified, zero-width non-joiners
// treated as spaces, whitespace collapsed.
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = strings.ReplaceAll(s, "ي", "ی")
	s = strings.ReplaceAll(s, "ك", "ک")
	s = strings.ReplaceAll(s, "\u200c", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

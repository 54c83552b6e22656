// Package ledgertest provides an in-memory ledger.TxRepository for package
// tests. Domain test fakes embed *Store and add their own record collections.
package ledgertest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
)

type partyRecord struct {
	Kind    ledger.EntityKind
	Balance int64
}

// Store keeps accounts, parties and journal entries in maps.
type Store struct {
	Accounts    map[int64]ledger.Account
	parties     map[uuid.UUID]*partyRecord
	Entries     map[int64]ledger.JournalEntry
	nextEntryID int64
}

// NewStore seeds a store with the given chart, assigning ids in order.
func NewStore(chart []ledger.Account) *Store {
	s := &Store{
		Accounts: make(map[int64]ledger.Account),
		parties:  make(map[uuid.UUID]*partyRecord),
		Entries:  make(map[int64]ledger.JournalEntry),
	}
	for i, account := range chart {
		account.ID = int64(i + 1)
		s.Accounts[account.ID] = account
	}
	return s
}

// AccountByCode returns the seeded account with the given code.
func (s *Store) AccountByCode(code string) ledger.Account {
	for _, account := range s.Accounts {
		if account.Code == code {
			return account
		}
	}
	return ledger.Account{}
}

// Balance returns the current balance of the account with the given code.
func (s *Store) Balance(code string) int64 {
	return s.AccountByCode(code).Balance
}

// SetBalance sets an opening balance for the account with the given code.
func (s *Store) SetBalance(code string, balance int64) {
	for id, account := range s.Accounts {
		if account.Code == code {
			account.Balance = balance
			s.Accounts[id] = account
			return
		}
	}
}

// Balances snapshots every account balance keyed by code.
func (s *Store) Balances() map[string]int64 {
	out := make(map[string]int64, len(s.Accounts))
	for _, account := range s.Accounts {
		out[account.Code] = account.Balance
	}
	return out
}

// AddParty registers a party with an opening balance.
func (s *Store) AddParty(kind ledger.EntityKind, id uuid.UUID, balance int64) {
	s.parties[id] = &partyRecord{Kind: kind, Balance: balance}
}

// PartyBalance returns the current balance of a party.
func (s *Store) PartyBalance(id uuid.UUID) int64 {
	if p, ok := s.parties[id]; ok {
		return p.Balance
	}
	return 0
}

// EntryByReference returns the stored entry linked to (module, reference).
func (s *Store) EntryByReference(module string, reference uuid.UUID) (ledger.JournalEntry, bool) {
	for _, entry := range s.Entries {
		if entry.Module == module && entry.Reference == reference {
			return entry, true
		}
	}
	return ledger.JournalEntry{}, false
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	out := make([]ledger.Account, 0, len(s.Accounts))
	for _, account := range s.Accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	account, ok := s.Accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) IncrementAccountBalance(ctx context.Context, id int64, delta int64) error {
	account, ok := s.Accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	account.Balance += delta
	s.Accounts[id] = account
	return nil
}

func (s *Store) InsertJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	if _, exists := s.EntryByReference(entry.Module, entry.Reference); exists {
		return ledger.JournalEntry{}, ledger.ErrReferencePosted
	}
	s.nextEntryID++
	entry.ID = s.nextEntryID
	entry.CreatedAt = time.Now()
	lines := make([]ledger.JournalLine, len(entry.Lines))
	copy(lines, entry.Lines)
	for i := range lines {
		lines[i].ID = int64(i + 1)
		lines[i].JournalID = entry.ID
	}
	entry.Lines = lines
	s.Entries[entry.ID] = entry
	return entry, nil
}

func (s *Store) GetJournalByReference(ctx context.Context, module string, reference uuid.UUID) (ledger.JournalEntry, error) {
	entry, ok := s.EntryByReference(module, reference)
	if !ok {
		return ledger.JournalEntry{}, ledger.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) DeleteJournalEntry(ctx context.Context, id int64) error {
	if _, ok := s.Entries[id]; !ok {
		return ledger.ErrEntryNotFound
	}
	delete(s.Entries, id)
	return nil
}

func (s *Store) IncrementPartyBalance(ctx context.Context, kind ledger.EntityKind, id uuid.UUID, delta int64) error {
	party, ok := s.parties[id]
	if !ok || party.Kind != kind {
		return ledger.ErrPartyNotFound
	}
	party.Balance += delta
	return nil
}

package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Side identifies one of the two legs of a journal line.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// NormalSide returns the side that increases an account's balance. Balances
// are stored normal-side-positive, so this is the single sign rule used by
// posting and reversal alike.
func NormalSide(t AccountType) Side {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return SideDebit
	}
	return SideCredit
}

// Account models a chart of accounts node with a running balance.
// Balances change only through Poster/Reverser, never directly.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	Balance   int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntityKind tags balance-bearing entities explicitly, so reversal never has
// to infer an entity's collection from the shape of its identifier.
type EntityKind string

const (
	KindAccount  EntityKind = "ACCOUNT"
	KindSupplier EntityKind = "SUPPLIER"
	KindCustomer EntityKind = "CUSTOMER"
	KindEmployee EntityKind = "EMPLOYEE"
)

// IsParty reports whether the kind refers to a supplier/customer/employee.
func (k EntityKind) IsParty() bool {
	return k == KindSupplier || k == KindCustomer || k == KindEmployee
}

// EntityRef is a tagged reference to either an account or a party.
type EntityRef struct {
	Kind      EntityKind
	AccountID int64
	PartyID   uuid.UUID
}

// JournalEntry is one balanced accounting record. (Module, Reference) links it
// to the originating business record and is the sole key the reversal engine
// uses to find it.
type JournalEntry struct {
	ID          int64
	Date        time.Time
	Description string
	Module      string
	Reference   uuid.UUID
	CreatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a debit or credit amount for one account. Exactly one of
// Debit/Credit is nonzero.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	// AccountName is denormalized at posting time so rendered ledgers survive
	// later account renames.
	AccountName string
	Debit       int64
	Credit      int64
}

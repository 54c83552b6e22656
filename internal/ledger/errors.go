package ledger

import (
	"fmt"

	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

var (
	// ErrUnbalanced indicates sum of debits != sum of credits.
	ErrUnbalanced = fmt.Errorf("ledger: journal lines must balance: %w", shared.ErrValidation)
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = fmt.Errorf("ledger: journal requires at least two lines: %w", shared.ErrValidation)
	// ErrEntryNotFound indicates no journal entry matches the reference.
	ErrEntryNotFound = fmt.Errorf("ledger: journal entry: %w", shared.ErrNotFound)
	// ErrAccountNotFound indicates the referenced account row is missing.
	ErrAccountNotFound = fmt.Errorf("ledger: account: %w", shared.ErrNotFound)
	// ErrPartyNotFound indicates the referenced party row is missing.
	ErrPartyNotFound = fmt.Errorf("ledger: party: %w", shared.ErrNotFound)
	// ErrAccountNotConfigured indicates a required well-known account is absent
	// from the chart of accounts.
	ErrAccountNotConfigured = fmt.Errorf("ledger: required account missing: %w", shared.ErrConfiguration)
	// ErrReferencePosted indicates a journal entry already exists for the
	// business record.
	ErrReferencePosted = fmt.Errorf("ledger: reference already posted: %w", shared.ErrConflict)
)

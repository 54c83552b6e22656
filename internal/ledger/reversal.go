package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Reverser undoes a posting's financial effects: every line's balance delta
// is negated and the journal entry is removed. Because the original posting
// already encoded the nature-aware sign, negating the stored lines is correct
// for every account type.
//
// Entity-specific side records (party balances, inventory transactions) are
// reversed by the owning domain service inside the same transaction.
type Reverser struct {
	logger *slog.Logger
}

// NewReverser builds a Reverser.
func NewReverser(logger *slog.Logger) *Reverser {
	return &Reverser{logger: logger}
}

// Unpost locates the journal entry linked to (module, reference), reverts the
// account balances it touched and deletes it. Returns ErrEntryNotFound when
// no entry is linked; callers treat that as "nothing financial to undo".
func (r *Reverser) Unpost(ctx context.Context, tx TxRepository, module string, reference uuid.UUID) (JournalEntry, error) {
	entry, err := tx.GetJournalByReference(ctx, module, reference)
	if err != nil {
		return JournalEntry{}, err
	}
	for _, line := range entry.Lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return JournalEntry{}, err
		}
		if err := tx.IncrementAccountBalance(ctx, account.ID, -LineDelta(account.Type, line.Debit, line.Credit)); err != nil {
			return JournalEntry{}, err
		}
	}
	if err := tx.DeleteJournalEntry(ctx, entry.ID); err != nil {
		return JournalEntry{}, err
	}
	r.logger.Debug("journal unposted",
		slog.String("module", module),
		slog.String("reference", reference.String()),
		slog.Int64("entry_id", entry.ID))
	return entry, nil
}

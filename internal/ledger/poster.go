package ledger

import (
	"context"
	"log/slog"
	"time"
)

// Poster is the single place account and party balances change as a side
// effect of business events. It operates inside a transaction supplied by the
// calling domain service, so the journal entry, account deltas, party deltas
// and the caller's own business record commit or roll back together.
type Poster struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewPoster builds a Poster.
func NewPoster(logger *slog.Logger) *Poster {
	return &Poster{logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (p *Poster) WithNow(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Post validates the input, writes the journal entry and applies every
// implied balance delta. Account deltas are derived from the lines using the
// account's normal side; party deltas are applied as given.
func (p *Poster) Post(ctx context.Context, tx TxRepository, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	date := in.Date
	if date.IsZero() {
		date = p.now()
	}
	entry := JournalEntry{
		Date:        date,
		Description: in.Description,
		Module:      in.Module,
		Reference:   in.Reference,
	}
	for _, line := range in.Lines {
		entry.Lines = append(entry.Lines, JournalLine{
			AccountID:   line.AccountID,
			AccountName: line.AccountName,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	inserted, err := tx.InsertJournalEntry(ctx, entry)
	if err != nil {
		return JournalEntry{}, err
	}
	for _, line := range inserted.Lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return JournalEntry{}, err
		}
		if err := tx.IncrementAccountBalance(ctx, account.ID, LineDelta(account.Type, line.Debit, line.Credit)); err != nil {
			return JournalEntry{}, err
		}
	}
	for _, pd := range in.PartyDeltas {
		if err := tx.IncrementPartyBalance(ctx, pd.Kind, pd.PartyID, pd.Delta); err != nil {
			return JournalEntry{}, err
		}
	}
	p.logger.Debug("journal posted",
		slog.String("module", in.Module),
		slog.String("reference", in.Reference.String()),
		slog.Int64("entry_id", inserted.ID))
	return inserted, nil
}

// LineDelta converts a journal line into a signed balance change for the
// account, honoring normal-side-positive storage.
func LineDelta(t AccountType, debit, credit int64) int64 {
	if NormalSide(t) == SideDebit {
		return debit - credit
	}
	return credit - debit
}

package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID   int64
	AccountName string
	Debit       int64
	Credit      int64
}

// PartyDelta is an explicit balance change for a supplier/customer/employee,
// applied in the same transaction as the journal entry.
type PartyDelta struct {
	Kind    EntityKind
	PartyID uuid.UUID
	Delta   int64
}

// PostingInput groups everything required to post one journal entry.
type PostingInput struct {
	Date        time.Time
	Description string
	Module      string
	Reference   uuid.UUID
	Lines       []LineInput
	PartyDeltas []PartyDelta
}

// Validate ensures the posting is balanced and well-formed. It runs before
// any store access, so a validation failure never leaves partial state.
func (in PostingInput) Validate() error {
	if in.Module == "" {
		return fmt.Errorf("ledger: module required: %w", shared.ErrValidation)
	}
	if in.Reference == uuid.Nil {
		return fmt.Errorf("ledger: reference required: %w", shared.ErrValidation)
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit int64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("ledger: line %d missing account: %w", idx, shared.ErrValidation)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount: %w", idx, shared.ErrValidation)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("ledger: line %d must have exactly one nonzero side: %w", idx, shared.ErrValidation)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		return ErrUnbalanced
	}
	for idx, pd := range in.PartyDeltas {
		if !pd.Kind.IsParty() {
			return fmt.Errorf("ledger: party delta %d has non-party kind %s: %w", idx, pd.Kind, shared.ErrValidation)
		}
		if pd.PartyID == uuid.Nil {
			return fmt.Errorf("ledger: party delta %d missing party id: %w", idx, shared.ErrValidation)
		}
	}
	return nil
}

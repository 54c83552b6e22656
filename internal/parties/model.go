package parties

import (
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
)

// Party is a balance-bearing person: supplier, customer or employee.
//
// Balance sign conventions: a positive supplier or employee balance means we
// owe them; a negative customer balance means they owe us. Balances change
// only inside posting transactions (credit purchases/sales, payments,
// transfers), never directly.
type Party struct {
	ID      uuid.UUID
	Kind    ledger.EntityKind
	Name    string
	Phone   string
	Balance int64
	// MonthlySalary is set for employees only.
	MonthlySalary *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

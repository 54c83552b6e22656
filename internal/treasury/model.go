package treasury

import (
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
)

// Module values used as journal entry references.
const (
	TransferModule  = "TRANSFER"
	LoanModule      = "LOAN"
	RepaymentModule = "LOAN_REPAYMENT"
	CheckModule     = "CHECK"
)

// CheckStatus is the lifecycle state of a payable check.
type CheckStatus string

const (
	CheckIssued CheckStatus = "ISSUED"
	CheckPassed CheckStatus = "PASSED"
)

// Transfer moves money between any two balance-bearing entities: accounts,
// suppliers, customers or employees. The journal lines debit the destination
// side and credit the source side.
type Transfer struct {
	ID        uuid.UUID        `json:"id"`
	Amount    int64            `json:"amount"`
	Date      time.Time        `json:"date"`
	Note      string           `json:"note,omitempty"`
	From      ledger.EntityRef `json:"from"`
	To        ledger.EntityRef `json:"to"`
	CreatedAt time.Time        `json:"created_at"`
}

// Loan is a borrowing from an external lender. Outstanding tracks the unpaid
// part of the principal.
type Loan struct {
	ID          uuid.UUID `json:"id"`
	Lender      string    `json:"lender"`
	Principal   int64     `json:"principal"`
	Outstanding int64     `json:"outstanding"`
	IssuedAt    time.Time `json:"issued_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoanRepayment is one payment against a loan.
type LoanRepayment struct {
	ID        uuid.UUID `json:"id"`
	LoanID    uuid.UUID `json:"loan_id"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Check is a payable check. Registering it has no financial effect; the
// journal entry posts when the check passes.
type Check struct {
	ID         uuid.UUID   `json:"id"`
	Payee      string      `json:"payee"`
	Amount     int64       `json:"amount"`
	DueDate    time.Time   `json:"due_date"`
	Status     CheckStatus `json:"status"`
	SupplierID *uuid.UUID  `json:"supplier_id,omitempty"`
	Category   string      `json:"category,omitempty"`
	PassedAt   *time.Time  `json:"passed_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

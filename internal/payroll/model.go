package payroll

import (
	"time"

	"github.com/google/uuid"
)

// Module is the journal entry reference tag for payroll payments.
const Module = "PAYROLL"

// Payment is one salary payment to an employee. The payment hits the salary
// expense account directly; money owed to employees moves through transfers.
type Payment struct {
	ID               uuid.UUID  `json:"id"`
	EmployeeID       *uuid.UUID `json:"employee_id,omitempty"`
	Amount           int64      `json:"amount"`
	PaymentAccountID *int64     `json:"payment_account_id,omitempty"`
	Note             string     `json:"note,omitempty"`
	PaidAt           time.Time  `json:"paid_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

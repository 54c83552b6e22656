package purchases

import (
	"time"

	"github.com/google/uuid"
)

// Module tags purchase journal entries.
const Module = "PURCHASE"

// Status enumerates the purchase request lifecycle.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// InventoryDetails links a purchase to a stocked item.
type InventoryDetails struct {
	ItemID uuid.UUID
	Qty    float64
}

// Purchase is a purchase request. Approval posts the journal entry and all
// side effects; rejection has no financial effect.
type Purchase struct {
	ID          uuid.UUID
	Status      Status
	Amount      int64
	Category    string
	Description string
	// IsCredit routes the credit side to accounts payable instead of a cash
	// account; combined with SupplierID it also moves the supplier balance.
	IsCredit         bool
	SupplierID       *uuid.UUID
	PaymentAccountID *int64
	Inventory        *InventoryDetails
	ApprovedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

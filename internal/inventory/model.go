package inventory

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates stock movements.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeUsage      TransactionType = "USAGE"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
	TransactionTypeReturn     TransactionType = "RETURN"
)

// Item is a stocked good with its last known unit cost.
type Item struct {
	ID           uuid.UUID
	Name         string
	Unit         string
	StockQty     float64
	LastUnitCost int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transaction records one signed stock movement (positive = in, negative =
// out). RelatedExpenseID links purchase movements to the originating purchase
// record; reversal finds and undoes the movement through it.
type Transaction struct {
	ID               int64
	ItemID           uuid.UUID
	Type             TransactionType
	Qty              float64
	UnitCost         int64
	RelatedExpenseID *uuid.UUID
	Note             string
	CreatedAt        time.Time
}

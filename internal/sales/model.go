package sales

import (
	"time"

	"github.com/google/uuid"
)

// Module values used as journal entry references. Subscription cancellations
// post their own entry rather than reversing the original sale, so they carry
// a distinct module tag.
const (
	Module       = "SALE"
	CancelModule = "SUBSCRIPTION_CANCEL"
)

// Stream identifies the revenue stream a sale belongs to.
type Stream string

const (
	StreamCafe         Stream = "CAFE"
	StreamSubscription Stream = "SUBSCRIPTION"
	StreamAssessment   Stream = "ASSESSMENT"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// CardTransaction is one card-to-card payment received as part of a cafe sale.
type CardTransaction struct {
	ID     int64     `json:"id"`
	SaleID uuid.UUID `json:"sale_id"`
	Amount int64     `json:"amount"`
	Note   string    `json:"note,omitempty"`
}

// Sale is one recorded sale. Cafe sales are compound: the gross revenue is
// split between cash, POS, card-to-card, discount and refund. Other streams
// carry a single Amount.
type Sale struct {
	ID               uuid.UUID         `json:"id"`
	Stream           Stream            `json:"stream"`
	Amount           int64             `json:"amount"`
	GrossAmount      int64             `json:"gross_amount,omitempty"`
	Discount         int64             `json:"discount,omitempty"`
	Refund           int64             `json:"refund,omitempty"`
	CashAmount       int64             `json:"cash_amount,omitempty"`
	PosAmount        int64             `json:"pos_amount,omitempty"`
	CardToCard       []CardTransaction `json:"card_to_card,omitempty"`
	IsCredit         bool              `json:"is_credit"`
	PaymentAccountID *int64            `json:"payment_account_id,omitempty"`
	CustomerID       *uuid.UUID        `json:"customer_id,omitempty"`
	SubscriptionID   *uuid.UUID        `json:"subscription_id,omitempty"`
	Description      string            `json:"description,omitempty"`
	Date             time.Time         `json:"date"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Subscription is a recurring sale agreement. Payments land in deferred
// revenue until recognized outside this system.
type Subscription struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Amount     int64              `json:"amount"`
	Status     SubscriptionStatus `json:"status"`
	IsCredit   bool               `json:"is_credit"`
	StartedAt  time.Time          `json:"started_at"`
	RenewsAt   time.Time          `json:"renews_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

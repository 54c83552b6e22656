package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Service drives the purchase request lifecycle. All money movement goes
// through the ledger poster/reverser inside one transaction per action.
type Service struct {
	repo     Repository
	poster   *ledger.Poster
	reverser *ledger.Reverser
	resolver *ledger.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, poster *ledger.Poster, reverser *ledger.Reverser, resolver *ledger.Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, poster: poster, reverser: reverser, resolver: resolver, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput describes a new purchase request.
type CreateInput struct {
	Amount           int64
	Category         string
	Description      string
	IsCredit         bool
	SupplierID       *uuid.UUID
	PaymentAccountID *int64
	Inventory        *InventoryDetails
}

func (in CreateInput) validate() error {
	if in.Amount <= 0 {
		return fmt.Errorf("purchases: amount must be positive: %w", shared.ErrValidation)
	}
	if in.Category == "" {
		return fmt.Errorf("purchases: category required: %w", shared.ErrValidation)
	}
	if in.Inventory != nil {
		if in.Inventory.ItemID == uuid.Nil {
			return fmt.Errorf("purchases: inventory item required: %w", shared.ErrValidation)
		}
		if in.Inventory.Qty <= 0 {
			return fmt.Errorf("purchases: inventory quantity must be positive: %w", shared.ErrValidation)
		}
	}
	return nil
}

// Create stores a PENDING purchase request. No financial effect until
// approval.
func (s *Service) Create(ctx context.Context, input CreateInput) (Purchase, error) {
	if err := input.validate(); err != nil {
		return Purchase{}, err
	}
	var created Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreatePurchase(ctx, Purchase{
			Status:           StatusPending,
			Amount:           input.Amount,
			Category:         input.Category,
			Description:      input.Description,
			IsCredit:         input.IsCredit,
			SupplierID:       input.SupplierID,
			PaymentAccountID: input.PaymentAccountID,
			Inventory:        input.Inventory,
		})
		return err
	})
	if err != nil {
		return Purchase{}, err
	}
	return created, nil
}

// Approve posts the purchase: journal entry, account and supplier balance
// deltas, and stock effects for inventory purchases, all atomically.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (Purchase, error) {
	var approved Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status != StatusPending {
			return fmt.Errorf("purchases: only pending purchases can be approved: %w", shared.ErrInvalidState)
		}
		if err := s.approveTx(ctx, tx, purchase); err != nil {
			return err
		}
		approved = purchase
		approved.Status = StatusApproved
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	return approved, nil
}

// Reject marks a pending purchase rejected. No financial effect.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status != StatusPending {
			return fmt.Errorf("purchases: only pending purchases can be rejected: %w", shared.ErrInvalidState)
		}
		return tx.UpdatePurchaseStatus(ctx, id, StatusRejected, nil)
	})
}

// Delete removes the purchase. For approved purchases every financial effect
// of the approval is reversed first, in the same transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status == StatusApproved {
			if err := s.reverseTx(ctx, tx, purchase); err != nil {
				return err
			}
		}
		return tx.DeletePurchase(ctx, id)
	})
}

// Edit replaces the purchase with new data: reverse-and-delete, then
// recreate. The new record gets a new identity; an approved purchase is
// re-approved with the new data in the same transaction.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, input CreateInput) (Purchase, error) {
	if err := input.validate(); err != nil {
		return Purchase{}, err
	}
	var recreated Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		if old.Status == StatusApproved {
			if err := s.reverseTx(ctx, tx, old); err != nil {
				return err
			}
		}
		if err := tx.DeletePurchase(ctx, id); err != nil {
			return err
		}
		recreated, err = tx.CreatePurchase(ctx, Purchase{
			Status:           StatusPending,
			Amount:           input.Amount,
			Category:         input.Category,
			Description:      input.Description,
			IsCredit:         input.IsCredit,
			SupplierID:       input.SupplierID,
			PaymentAccountID: input.PaymentAccountID,
			Inventory:        input.Inventory,
		})
		if err != nil {
			return err
		}
		if old.Status == StatusApproved {
			if err := s.approveTx(ctx, tx, recreated); err != nil {
				return err
			}
			recreated.Status = StatusApproved
		}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	return recreated, nil
}

// Get fetches one purchase.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// List returns purchases, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, status)
}

// approveTx computes journal lines and side effects for one purchase and
// applies them. Runs inside the caller's transaction.
func (s *Service) approveTx(ctx context.Context, tx TxRepository, purchase Purchase) error {
	accounts, err := tx.ListAccounts(ctx)
	if err != nil {
		return err
	}
	expense, err := s.resolver.ExpenseByCategory(accounts, purchase.Category)
	if err != nil {
		return err
	}
	var creditAccount ledger.Account
	if purchase.IsCredit {
		creditAccount, err = s.resolver.ByCode(accounts, ledger.CodeAccountsPayable)
	} else {
		creditAccount, err = s.resolver.PaymentAccount(accounts, purchase.PaymentAccountID)
	}
	if err != nil {
		return err
	}
	input := ledger.PostingInput{
		Date:        s.now(),
		Description: fmt.Sprintf("خرید: %s", purchase.Category),
		Module:      Module,
		Reference:   purchase.ID,
		Lines: []ledger.LineInput{
			{AccountID: expense.ID, AccountName: expense.Name, Debit: purchase.Amount},
			{AccountID: creditAccount.ID, AccountName: creditAccount.Name, Credit: purchase.Amount},
		},
	}
	if purchase.IsCredit && purchase.SupplierID != nil {
		input.PartyDeltas = []ledger.PartyDelta{
			{Kind: ledger.KindSupplier, PartyID: *purchase.SupplierID, Delta: purchase.Amount},
		}
	}
	if _, err := s.poster.Post(ctx, tx, input); err != nil {
		return err
	}
	if purchase.Inventory != nil {
		if err := s.applyInventoryTx(ctx, tx, purchase); err != nil {
			return err
		}
	}
	now := s.now()
	return tx.UpdatePurchaseStatus(ctx, purchase.ID, StatusApproved, &now)
}

func (s *Service) applyInventoryTx(ctx context.Context, tx TxRepository, purchase Purchase) error {
	details := purchase.Inventory
	item, err := tx.GetItem(ctx, details.ItemID)
	if err != nil {
		return err
	}
	unitCost := int64(math.Round(float64(purchase.Amount) / details.Qty))
	if err := tx.IncrementStock(ctx, item.ID, details.Qty); err != nil {
		return err
	}
	if err := tx.SetLastUnitCost(ctx, item.ID, unitCost); err != nil {
		return err
	}
	_, err = tx.InsertTransaction(ctx, inventory.Transaction{
		ItemID:           item.ID,
		Type:             inventory.TransactionTypePurchase,
		Qty:              details.Qty,
		UnitCost:         unitCost,
		RelatedExpenseID: &purchase.ID,
		Note:             purchase.Description,
	})
	return err
}

// reverseTx undoes every financial effect of an approval: the journal entry
// with its account deltas, the supplier balance delta of a credit purchase,
// and the stock movement of an inventory purchase.
func (s *Service) reverseTx(ctx context.Context, tx TxRepository, purchase Purchase) error {
	if _, err := s.reverser.Unpost(ctx, tx, Module, purchase.ID); err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound) {
			s.logger.Warn("approved purchase had no journal entry to reverse",
				slog.String("purchase_id", purchase.ID.String()))
		} else {
			return err
		}
	}
	if purchase.IsCredit && purchase.SupplierID != nil {
		if err := tx.IncrementPartyBalance(ctx, ledger.KindSupplier, *purchase.SupplierID, -purchase.Amount); err != nil {
			return err
		}
	}
	if purchase.Inventory != nil {
		txn, err := tx.GetTransactionByExpense(ctx, purchase.ID)
		if err != nil {
			if errors.Is(err, inventory.ErrTransactionNotFound) {
				return nil
			}
			return err
		}
		if err := tx.IncrementStock(ctx, txn.ItemID, -txn.Qty); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, txn.ID); err != nil {
			return err
		}
	}
	return nil
}

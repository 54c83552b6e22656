package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Service manages inventory items and manual stock movements. Purchase-driven
// movements are posted by the purchases package inside its own transaction.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	allowNeg bool
}

// Config groups optional settings.
type Config struct {
	AllowNegativeStock bool
}

// NewService builds a Service.
func NewService(repo Repository, logger *slog.Logger, cfg Config) *Service {
	return &Service{repo: repo, logger: logger, allowNeg: cfg.AllowNegativeStock}
}

// CreateItemInput describes a new stocked item.
type CreateItemInput struct {
	Name string
	Unit string
}

// CreateItem stores a new item with zero stock.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	if input.Name == "" {
		return Item{}, fmt.Errorf("inventory: item name required: %w", shared.ErrValidation)
	}
	return s.repo.CreateItem(ctx, Item{Name: input.Name, Unit: input.Unit})
}

// ListItems returns all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// MovementInput describes a manual stock movement.
type MovementInput struct {
	ItemID uuid.UUID
	Type   TransactionType
	// Qty is signed: positive = in, negative = out.
	Qty  float64
	Note string
}

// RecordMovement applies a usage/adjustment/return movement. These are
// stock-only records with no journal effect.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (Transaction, error) {
	if input.ItemID == uuid.Nil {
		return Transaction{}, fmt.Errorf("inventory: item required: %w", shared.ErrValidation)
	}
	if input.Qty == 0 {
		return Transaction{}, fmt.Errorf("inventory: quantity must be nonzero: %w", shared.ErrValidation)
	}
	switch input.Type {
	case TransactionTypeUsage, TransactionTypeAdjustment, TransactionTypeReturn:
	default:
		return Transaction{}, fmt.Errorf("inventory: type %q not allowed for manual movements: %w", input.Type, shared.ErrValidation)
	}
	if input.Type == TransactionTypeUsage && input.Qty > 0 {
		input.Qty = -input.Qty
	}
	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItem(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !s.allowNeg && item.StockQty+input.Qty < 0 {
			return fmt.Errorf("inventory: movement would make stock negative: %w", shared.ErrValidation)
		}
		if err := tx.IncrementStock(ctx, item.ID, input.Qty); err != nil {
			return err
		}
		created, err = tx.InsertTransaction(ctx, Transaction{
			ItemID:   item.ID,
			Type:     input.Type,
			Qty:      input.Qty,
			UnitCost: item.LastUnitCost,
			Note:     input.Note,
		})
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	s.logger.Debug("stock movement recorded",
		slog.String("item_id", input.ItemID.String()),
		slog.String("type", string(input.Type)),
		slog.Float64("qty", input.Qty))
	return created, nil
}

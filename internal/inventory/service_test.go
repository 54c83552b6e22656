package inventory_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

type memoryRepo struct {
	items  map[uuid.UUID]inventory.Item
	txns   map[int64]inventory.Transaction
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items: make(map[uuid.UUID]inventory.Item),
		txns:  make(map[int64]inventory.Transaction),
	}
}

func (r *memoryRepo) addItem(name string, stock float64, lastUnitCost int64) uuid.UUID {
	id := uuid.New()
	r.items[id] = inventory.Item{ID: id, Name: name, StockQty: stock, LastUnitCost: lastUnitCost}
	return id
}

func (r *memoryRepo) CreateItem(ctx context.Context, item inventory.Item) (inventory.Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id uuid.UUID) (inventory.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, nil
}

func (r *memoryRepo) ListItems(ctx context.Context) ([]inventory.Item, error) {
	var out []inventory.Item
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) IncrementStock(ctx context.Context, itemID uuid.UUID, qty float64) error {
	item, ok := r.items[itemID]
	if !ok {
		return inventory.ErrItemNotFound
	}
	item.StockQty += qty
	r.items[itemID] = item
	return nil
}

func (r *memoryRepo) SetLastUnitCost(ctx context.Context, itemID uuid.UUID, cost int64) error {
	item, ok := r.items[itemID]
	if !ok {
		return inventory.ErrItemNotFound
	}
	item.LastUnitCost = cost
	r.items[itemID] = item
	return nil
}

func (r *memoryRepo) InsertTransaction(ctx context.Context, txn inventory.Transaction) (inventory.Transaction, error) {
	r.nextID++
	txn.ID = r.nextID
	txn.CreatedAt = time.Now()
	r.txns[txn.ID] = txn
	return txn, nil
}

func (r *memoryRepo) GetTransactionByExpense(ctx context.Context, expenseID uuid.UUID) (inventory.Transaction, error) {
	for _, txn := range r.txns {
		if txn.RelatedExpenseID != nil && *txn.RelatedExpenseID == expenseID {
			return txn, nil
		}
	}
	return inventory.Transaction{}, inventory.ErrTransactionNotFound
}

func (r *memoryRepo) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := r.txns[id]; !ok {
		return inventory.ErrTransactionNotFound
	}
	delete(r.txns, id)
	return nil
}

func newService(repo *memoryRepo, allowNeg bool) *inventory.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return inventory.NewService(repo, logger, inventory.Config{AllowNegativeStock: allowNeg})
}

func TestCreateItemRequiresName(t *testing.T) {
	service := newService(newMemoryRepo(), false)

	_, err := service.CreateItem(context.Background(), inventory.CreateItemInput{Unit: "کیلوگرم"})
	require.ErrorIs(t, err, shared.ErrValidation)

	item, err := service.CreateItem(context.Background(), inventory.CreateItemInput{Name: "قهوه", Unit: "کیلوگرم"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, item.ID)
	require.Zero(t, item.StockQty)
}

func TestUsageMovementReducesStock(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.addItem("شیر", 10, 400_000)
	service := newService(repo, false)

	txn, err := service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypeUsage,
		Qty:    3,
		Note:   "مصرف روزانه",
	})
	require.NoError(t, err)
	require.Equal(t, float64(-3), txn.Qty)
	require.Equal(t, int64(400_000), txn.UnitCost)

	item, err := repo.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, float64(7), item.StockQty)
}

func TestMovementCannotDriveStockNegative(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.addItem("شکر", 2, 100_000)
	service := newService(repo, false)

	_, err := service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypeUsage,
		Qty:    5,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	item, err := repo.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, float64(2), item.StockQty)
}

func TestNegativeStockAllowedWhenConfigured(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.addItem("شکر", 2, 100_000)
	service := newService(repo, true)

	_, err := service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypeUsage,
		Qty:    5,
	})
	require.NoError(t, err)

	item, err := repo.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, float64(-3), item.StockQty)
}

func TestManualMovementRejectsPurchaseType(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.addItem("قهوه", 5, 500_000)
	service := newService(repo, false)

	_, err := service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypePurchase,
		Qty:    1,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypeAdjustment,
		Qty:    0,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestReturnMovementAddsStock(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.addItem("لیوان", 1, 50_000)
	service := newService(repo, false)

	txn, err := service.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: itemID,
		Type:   inventory.TransactionTypeReturn,
		Qty:    4,
	})
	require.NoError(t, err)
	require.Equal(t, float64(4), txn.Qty)

	item, err := repo.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, float64(5), item.StockQty)
}

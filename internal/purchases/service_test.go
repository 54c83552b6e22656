package purchases_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/ledger/ledgertest"
	"github.com/hessekhub/hessekhub-finance/internal/purchases"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

type memoryRepo struct {
	*ledgertest.Store
	records    map[uuid.UUID]purchases.Purchase
	items      map[uuid.UUID]inventory.Item
	movements  map[int64]inventory.Transaction
	nextMoveID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		Store:     ledgertest.NewStore(ledger.DefaultChart()),
		records:   make(map[uuid.UUID]purchases.Purchase),
		items:     make(map[uuid.UUID]inventory.Item),
		movements: make(map[int64]inventory.Transaction),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, purchases.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) CreatePurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.records[p.ID] = p
	return p, nil
}

func (r *memoryRepo) GetPurchase(ctx context.Context, id uuid.UUID) (purchases.Purchase, error) {
	p, ok := r.records[id]
	if !ok {
		return purchases.Purchase{}, purchases.ErrPurchaseNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListPurchases(ctx context.Context, status purchases.Status) ([]purchases.Purchase, error) {
	var out []purchases.Purchase
	for _, p := range r.records {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status purchases.Status, approvedAt *time.Time) error {
	p, ok := r.records[id]
	if !ok {
		return purchases.ErrPurchaseNotFound
	}
	p.Status = status
	p.ApprovedAt = approvedAt
	r.records[id] = p
	return nil
}

func (r *memoryRepo) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.records[id]; !ok {
		return purchases.ErrPurchaseNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id uuid.UUID) (inventory.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, nil
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
	r.nextMoveID++
	txn.ID = r.nextMoveID
	r.movements[txn.ID] = txn
	return txn, nil
}

func (r *memoryRepo) GetTransactionByExpense(ctx context.Context, expenseID uuid.UUID) (inventory.Transaction, error) {
	for _, txn := range r.movements {
		if txn.RelatedExpenseID != nil && *txn.RelatedExpenseID == expenseID {
			return txn, nil
		}
	}
	return inventory.Transaction{}, inventory.ErrTransactionNotFound
}

func (r *memoryRepo) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := r.movements[id]; !ok {
		return inventory.ErrTransactionNotFound
	}
	delete(r.movements, id)
	return nil
}

func newService(repo *memoryRepo) *purchases.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return purchases.NewService(repo,
		ledger.NewPoster(logger),
		ledger.NewReverser(logger),
		ledger.NewResolver(logger),
		logger)
}

func TestApproveCashPurchase(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 50_000_000)
	service := newService(repo)

	cash := repo.AccountByCode(ledger.CodeCash)
	created, err := service.Create(context.Background(), purchases.CreateInput{
		Amount:           1_500_000,
		Category:         "هزینه مواد اولیه",
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)
	require.Equal(t, purchases.StatusPending, created.Status)
	require.Empty(t, repo.Entries)

	approved, err := service.Approve(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, purchases.StatusApproved, approved.Status)

	require.Equal(t, int64(48_500_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(1_500_000), repo.Balance(ledger.CodeMaterialsExpense))

	entry, found := repo.EntryByReference(purchases.Module, created.ID)
	require.True(t, found)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, int64(1_500_000), entry.Lines[0].Debit)
	require.Equal(t, int64(1_500_000), entry.Lines[1].Credit)
}

func TestApproveCreditPurchaseTouchesPayableOnly(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	supplierID := uuid.New()
	repo.AddParty(ledger.KindSupplier, supplierID, 0)

	created, err := service.Create(context.Background(), purchases.CreateInput{
		Amount:     2_000_000,
		Category:   "دسته ناشناخته",
		IsCredit:   true,
		SupplierID: &supplierID,
	})
	require.NoError(t, err)

	assetsBefore := map[string]int64{
		ledger.CodeCash: repo.Balance(ledger.CodeCash),
		ledger.CodeBank: repo.Balance(ledger.CodeBank),
	}

	_, err = service.Approve(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, int64(2_000_000), repo.Balance(ledger.CodeAccountsPayable))
	require.Equal(t, int64(2_000_000), repo.PartyBalance(supplierID))
	require.Equal(t, assetsBefore[ledger.CodeCash], repo.Balance(ledger.CodeCash))
	require.Equal(t, assetsBefore[ledger.CodeBank], repo.Balance(ledger.CodeBank))
}

func TestRejectHasNoFinancialEffect(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	created, err := service.Create(context.Background(), purchases.CreateInput{
		Amount:   900_000,
		Category: "هزینه حقوق",
	})
	require.NoError(t, err)

	before := repo.Balances()
	require.NoError(t, service.Reject(context.Background(), created.ID))
	require.Equal(t, before, repo.Balances())
	require.Empty(t, repo.Entries)
}

func TestApproveRequiresPendingStatus(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	created, err := service.Create(context.Background(), purchases.CreateInput{Amount: 100, Category: "x"})
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeleteApprovedPurchaseRestoresBalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 10_000_000)
	service := newService(repo)

	supplierID := uuid.New()
	repo.AddParty(ledger.KindSupplier, supplierID, 500_000)

	before := repo.Balances()
	created, err := service.Create(context.Background(), purchases.CreateInput{
		Amount:     2_000_000,
		Category:   "هزینه مواد اولیه",
		IsCredit:   true,
		SupplierID: &supplierID,
	})
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotEqual(t, before, repo.Balances())

	require.NoError(t, service.Delete(context.Background(), created.ID))

	require.Equal(t, before, repo.Balances())
	require.Equal(t, int64(500_000), repo.PartyBalance(supplierID))
	require.Empty(t, repo.Entries)
	_, err = service.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInventoryPurchaseLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 20_000_000)
	service := newService(repo)

	itemID := uuid.New()
	repo.items[itemID] = inventory.Item{ID: itemID, Name: "قهوه", Unit: "kg", StockQty: 3}

	cash := repo.AccountByCode(ledger.CodeCash)
	created, err := service.Create(context.Background(), purchases.CreateInput{
		Amount:           5_000_000,
		Category:         "هزینه مواد اولیه",
		PaymentAccountID: &cash.ID,
		Inventory:        &purchases.InventoryDetails{ItemID: itemID, Qty: 10},
	})
	require.NoError(t, err)

	_, err = service.Approve(context.Background(), created.ID)
	require.NoError(t, err)

	item := repo.items[itemID]
	require.Equal(t, float64(13), item.StockQty)
	require.Equal(t, int64(500_000), item.LastUnitCost)

	txn, err := repo.GetTransactionByExpense(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, inventory.TransactionTypePurchase, txn.Type)
	require.Equal(t, float64(10), txn.Qty)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	item = repo.items[itemID]
	require.Equal(t, float64(3), item.StockQty)
	_, err = repo.GetTransactionByExpense(context.Background(), created.ID)
	require.ErrorIs(t, err, inventory.ErrTransactionNotFound)
	require.Equal(t, int64(20_000_000), repo.Balance(ledger.CodeCash))
}

func TestEditProducesNewIdentitySameNetEffect(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 10_000_000)
	service := newService(repo)

	cash := repo.AccountByCode(ledger.CodeCash)
	input := purchases.CreateInput{
		Amount:           1_000_000,
		Category:         "هزینه مواد اولیه",
		PaymentAccountID: &cash.ID,
	}
	created, err := service.Create(context.Background(), input)
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID)
	require.NoError(t, err)

	after := repo.Balances()
	edited, err := service.Edit(context.Background(), created.ID, input)
	require.NoError(t, err)

	require.NotEqual(t, created.ID, edited.ID)
	require.Equal(t, purchases.StatusApproved, edited.Status)
	require.Equal(t, after, repo.Balances())

	_, found := repo.EntryByReference(purchases.Module, created.ID)
	require.False(t, found)
	_, found = repo.EntryByReference(purchases.Module, edited.ID)
	require.True(t, found)
}

func TestCreateValidatesInput(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	_, err := service.Create(context.Background(), purchases.CreateInput{Amount: -5, Category: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = service.Create(context.Background(), purchases.CreateInput{Amount: 100})
	require.ErrorIs(t, err, shared.ErrValidation)
}

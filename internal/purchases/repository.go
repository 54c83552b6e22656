package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// ErrPurchaseNotFound indicates the purchase does not exist.
var ErrPurchaseNotFound = fmt.Errorf("purchases: purchase: %w", shared.ErrNotFound)

// TxRepository exposes purchase, ledger and inventory operations inside one
// transaction, so a purchase approval commits its record update, journal
// entry, balance deltas and stock effects atomically.
type TxRepository interface {
	ledger.TxRepository
	inventory.TxRepository
	CreatePurchase(ctx context.Context, p Purchase) (Purchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status Status, approvedAt *time.Time) error
	DeletePurchase(ctx context.Context, id uuid.UUID) error
}

// Repository provides purchase storage plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPurchase(ctx context.Context, id uuid.UUID) (Purchase, error)
	ListPurchases(ctx context.Context, status Status) ([]Purchase, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed purchase repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			TxStore:        ledger.NewTxStore(tx),
			InventoryStore: inventory.NewTxStore(tx),
			tx:             tx,
		})
	})
}

func (r *repository) GetPurchase(ctx context.Context, id uuid.UUID) (Purchase, error) {
	return getPurchase(ctx, r.db, id)
}

func (r *repository) ListPurchases(ctx context.Context, status Status) ([]Purchase, error) {
	query := `SELECT id, status, amount, category, description, is_credit, supplier_id, payment_account_id,
inventory_item_id, inventory_qty, approved_at, created_at, updated_at FROM purchases`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepository struct {
	*ledger.TxStore
	InventoryStore *inventory.TxStore
	tx             pgx.Tx
}

// Inventory methods delegate to the embedded inventory store.

func (r *txRepository) GetItem(ctx context.Context, id uuid.UUID) (inventory.Item, error) {
	return r.InventoryStore.GetItem(ctx, id)
}

func (r *txRepository) IncrementStock(ctx context.Context, itemID uuid.UUID, qty float64) error {
	return r.InventoryStore.IncrementStock(ctx, itemID, qty)
}

func (r *txRepository) SetLastUnitCost(ctx context.Context, itemID uuid.UUID, cost int64) error {
	return r.InventoryStore.SetLastUnitCost(ctx, itemID, cost)
}

func (r *txRepository) InsertTransaction(ctx context.Context, txn inventory.Transaction) (inventory.Transaction, error) {
	return r.InventoryStore.InsertTransaction(ctx, txn)
}

func (r *txRepository) GetTransactionByExpense(ctx context.Context, expenseID uuid.UUID) (inventory.Transaction, error) {
	return r.InventoryStore.GetTransactionByExpense(ctx, expenseID)
}

func (r *txRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.InventoryStore.DeleteTransaction(ctx, id)
}

func (r *txRepository) CreatePurchase(ctx context.Context, p Purchase) (Purchase, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	var itemID *uuid.UUID
	var qty *float64
	if p.Inventory != nil {
		itemID = &p.Inventory.ItemID
		qty = &p.Inventory.Qty
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO purchases (id, status, amount, category, description, is_credit,
supplier_id, payment_account_id, inventory_item_id, inventory_qty, approved_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at, updated_at`,
		p.ID, p.Status, p.Amount, p.Category, p.Description, p.IsCredit,
		p.SupplierID, p.PaymentAccountID, itemID, qty, p.ApprovedAt)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

func (r *txRepository) GetPurchase(ctx context.Context, id uuid.UUID) (Purchase, error) {
	return getPurchase(ctx, r.tx, id)
}

func (r *txRepository) UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status Status, approvedAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE purchases SET status=$2, approved_at=$3, updated_at=NOW() WHERE id=$1`,
		id, status, approvedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

func (r *txRepository) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getPurchase(ctx context.Context, q queryer, id uuid.UUID) (Purchase, error) {
	row := q.QueryRow(ctx, `SELECT id, status, amount, category, description, is_credit, supplier_id,
payment_account_id, inventory_item_id, inventory_qty, approved_at, created_at, updated_at
FROM purchases WHERE id=$1`, id)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrPurchaseNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

func scanPurchase(row rowScanner) (Purchase, error) {
	var p Purchase
	var itemID *uuid.UUID
	var qty *float64
	err := row.Scan(&p.ID, &p.Status, &p.Amount, &p.Category, &p.Description, &p.IsCredit,
		&p.SupplierID, &p.PaymentAccountID, &itemID, &qty, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Purchase{}, err
	}
	if itemID != nil && qty != nil {
		p.Inventory = &InventoryDetails{ItemID: *itemID, Qty: *qty}
	}
	return p, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

var (
	// ErrItemNotFound indicates the inventory item does not exist.
	ErrItemNotFound = fmt.Errorf("inventory: item: %w", shared.ErrNotFound)
	// ErrTransactionNotFound indicates no stock movement matches the lookup.
	ErrTransactionNotFound = fmt.Errorf("inventory: transaction: %w", shared.ErrNotFound)
)

// TxRepository exposes inventory operations available inside a transaction.
// The purchases package embeds it so stock effects commit atomically with the
// purchase journal.
type TxRepository interface {
	GetItem(ctx context.Context, id uuid.UUID) (Item, error)
	IncrementStock(ctx context.Context, itemID uuid.UUID, qty float64) error
	SetLastUnitCost(ctx context.Context, itemID uuid.UUID, cost int64) error
	InsertTransaction(ctx context.Context, txn Transaction) (Transaction, error)
	GetTransactionByExpense(ctx context.Context, expenseID uuid.UUID) (Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Repository provides item storage outside transactions.
type Repository interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed inventory repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `INSERT INTO inventory_items (id, name, unit, stock_qty, last_unit_cost)
VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`,
		item.ID, item.Name, item.Unit, item.StockQty, item.LastUnitCost)
	if err := row.Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *repository) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	return getItem(ctx, r.db, id)
}

func (r *repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, unit, stock_qty, last_unit_cost, created_at, updated_at
FROM inventory_items ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.StockQty, &item.LastUnitCost, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// TxStore is the pgx-backed TxRepository, exported for embedding.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps a pgx transaction.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

func (s *TxStore) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	return getItem(ctx, s.tx, id)
}

func (s *TxStore) IncrementStock(ctx context.Context, itemID uuid.UUID, qty float64) error {
	cmd, err := s.tx.Exec(ctx, `UPDATE inventory_items SET stock_qty = stock_qty + $2, updated_at = NOW() WHERE id=$1`, itemID, qty)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *TxStore) SetLastUnitCost(ctx context.Context, itemID uuid.UUID, cost int64) error {
	cmd, err := s.tx.Exec(ctx, `UPDATE inventory_items SET last_unit_cost = $2, updated_at = NOW() WHERE id=$1`, itemID, cost)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *TxStore) InsertTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	row := s.tx.QueryRow(ctx, `INSERT INTO inventory_transactions (item_id, type, qty, unit_cost, related_expense_id, note)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
		txn.ItemID, txn.Type, txn.Qty, txn.UnitCost, txn.RelatedExpenseID, txn.Note)
	if err := row.Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (s *TxStore) GetTransactionByExpense(ctx context.Context, expenseID uuid.UUID) (Transaction, error) {
	var txn Transaction
	err := s.tx.QueryRow(ctx, `SELECT id, item_id, type, qty, unit_cost, related_expense_id, note, created_at
FROM inventory_transactions WHERE related_expense_id=$1`, expenseID).
		Scan(&txn.ID, &txn.ItemID, &txn.Type, &txn.Qty, &txn.UnitCost, &txn.RelatedExpenseID, &txn.Note, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return txn, nil
}

func (s *TxStore) DeleteTransaction(ctx context.Context, id int64) error {
	cmd, err := s.tx.Exec(ctx, `DELETE FROM inventory_transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getItem(ctx context.Context, q queryer, id uuid.UUID) (Item, error) {
	var item Item
	err := q.QueryRow(ctx, `SELECT id, name, unit, stock_qty, last_unit_cost, created_at, updated_at
FROM inventory_items WHERE id=$1`, id).
		Scan(&item.ID, &item.Name, &item.Unit, &item.StockQty, &item.LastUnitCost, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

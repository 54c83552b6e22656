package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

var (
	// ErrSaleNotFound indicates the sale does not exist.
	ErrSaleNotFound = fmt.Errorf("sales: sale: %w", shared.ErrNotFound)
	// ErrSubscriptionNotFound indicates the subscription does not exist.
	ErrSubscriptionNotFound = fmt.Errorf("sales: subscription: %w", shared.ErrNotFound)
)

// TxRepository exposes sale, subscription and ledger operations inside one
// transaction, so a sale commits its record, journal entry and balance deltas
// atomically.
type TxRepository interface {
	ledger.TxRepository
	CreateSale(ctx context.Context, s Sale) (Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (Sale, error)
	DeleteSale(ctx context.Context, id uuid.UUID) error
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error)
	UpdateSubscription(ctx context.Context, sub Subscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// Repository provides sale storage plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id uuid.UUID) (Sale, error)
	ListSales(ctx context.Context, stream Stream) ([]Sale, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]Subscription, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed sales repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxStore: ledger.NewTxStore(tx), tx: tx})
	})
}

func (r *repository) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	return getSale(ctx, r.db, id)
}

func (r *repository) ListSales(ctx context.Context, stream Stream) ([]Sale, error) {
	query := `SELECT id, stream, amount, gross_amount, discount, refund, cash_amount, pos_amount,
is_credit, payment_account_id, customer_id, subscription_id, description, sale_date, created_at FROM sales`
	args := []any{}
	if stream != "" {
		query += ` WHERE stream=$1`
		args = append(args, stream)
	}
	query += ` ORDER BY sale_date DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return getSubscription(ctx, r.db, id)
}

func (r *repository) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return listSubscriptions(ctx, r.db, `SELECT id, customer_id, amount, status, is_credit, started_at, renews_at, created_at
FROM subscriptions ORDER BY created_at DESC`)
}

func (r *repository) ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]Subscription, error) {
	return listSubscriptions(ctx, r.db, `SELECT id, customer_id, amount, status, is_credit, started_at, renews_at, created_at
FROM subscriptions WHERE status='ACTIVE' AND renews_at <= $1 ORDER BY renews_at`, asOf)
}

type txRepository struct {
	*ledger.TxStore
	tx pgx.Tx
}

func (r *txRepository) CreateSale(ctx context.Context, s Sale) (Sale, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO sales (id, stream, amount, gross_amount, discount, refund,
cash_amount, pos_amount, is_credit, payment_account_id, customer_id, subscription_id, description, sale_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING created_at`,
		s.ID, s.Stream, s.Amount, s.GrossAmount, s.Discount, s.Refund,
		s.CashAmount, s.PosAmount, s.IsCredit, s.PaymentAccountID, s.CustomerID, s.SubscriptionID,
		s.Description, s.Date)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Sale{}, err
	}
	for i := range s.CardToCard {
		card := &s.CardToCard[i]
		card.SaleID = s.ID
		row := r.tx.QueryRow(ctx, `INSERT INTO sale_card_transactions (sale_id, amount, note)
VALUES ($1,$2,$3) RETURNING id`, card.SaleID, card.Amount, card.Note)
		if err := row.Scan(&card.ID); err != nil {
			return Sale{}, err
		}
	}
	return s, nil
}

func (r *txRepository) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	return getSale(ctx, r.tx, id)
}

func (r *txRepository) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM sale_card_transactions WHERE sale_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (r *txRepository) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO subscriptions (id, customer_id, amount, status, is_credit, started_at, renews_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`,
		sub.ID, sub.CustomerID, sub.Amount, sub.Status, sub.IsCredit, sub.StartedAt, sub.RenewsAt)
	if err := row.Scan(&sub.CreatedAt); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (r *txRepository) GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return getSubscription(ctx, r.tx, id)
}

func (r *txRepository) UpdateSubscription(ctx context.Context, sub Subscription) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE subscriptions SET status=$2, renews_at=$3 WHERE id=$1`,
		sub.ID, sub.Status, sub.RenewsAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *txRepository) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getSale(ctx context.Context, q queryer, id uuid.UUID) (Sale, error) {
	row := q.QueryRow(ctx, `SELECT id, stream, amount, gross_amount, discount, refund, cash_amount, pos_amount,
is_credit, payment_account_id, customer_id, subscription_id, description, sale_date, created_at
FROM sales WHERE id=$1`, id)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrSaleNotFound
		}
		return Sale{}, err
	}
	rows, err := q.Query(ctx, `SELECT id, sale_id, amount, note FROM sale_card_transactions WHERE sale_id=$1 ORDER BY id`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var card CardTransaction
		if err := rows.Scan(&card.ID, &card.SaleID, &card.Amount, &card.Note); err != nil {
			return Sale{}, err
		}
		s.CardToCard = append(s.CardToCard, card)
	}
	return s, rows.Err()
}

func scanSale(row rowScanner) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.Stream, &s.Amount, &s.GrossAmount, &s.Discount, &s.Refund,
		&s.CashAmount, &s.PosAmount, &s.IsCredit, &s.PaymentAccountID, &s.CustomerID, &s.SubscriptionID,
		&s.Description, &s.Date, &s.CreatedAt)
	if err != nil {
		return Sale{}, err
	}
	return s, nil
}

func getSubscription(ctx context.Context, q queryer, id uuid.UUID) (Subscription, error) {
	row := q.QueryRow(ctx, `SELECT id, customer_id, amount, status, is_credit, started_at, renews_at, created_at
FROM subscriptions WHERE id=$1`, id)
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.CustomerID, &sub.Amount, &sub.Status, &sub.IsCredit,
		&sub.StartedAt, &sub.RenewsAt, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrSubscriptionNotFound
		}
		return Subscription{}, err
	}
	return sub, nil
}

func listSubscriptions(ctx context.Context, db *pgxpool.Pool, query string, args ...any) ([]Subscription, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.CustomerID, &sub.Amount, &sub.Status, &sub.IsCredit,
			&sub.StartedAt, &sub.RenewsAt, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

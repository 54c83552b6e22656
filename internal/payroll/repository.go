package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// ErrPaymentNotFound indicates the payment does not exist.
var ErrPaymentNotFound = fmt.Errorf("payroll: payment: %w", shared.ErrNotFound)

// TxRepository exposes payment and ledger operations inside one transaction.
type TxRepository interface {
	ledger.TxRepository
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
}

// Repository provides payment storage plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed payroll repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxStore: ledger.NewTxStore(tx), tx: tx})
	})
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, employee_id, amount, payment_account_id, note, paid_at, created_at
FROM payroll_payments WHERE id=$1`, id)
	return scanPayment(row)
}

func (r *repository) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, employee_id, amount, payment_account_id, note, paid_at, created_at
FROM payroll_payments ORDER BY paid_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepository struct {
	*ledger.TxStore
	tx pgx.Tx
}

func (r *txRepository) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO payroll_payments (id, employee_id, amount, payment_account_id, note, paid_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		p.ID, p.EmployeeID, p.Amount, p.PaymentAccountID, p.Note, p.PaidAt)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, employee_id, amount, payment_account_id, note, paid_at, created_at
FROM payroll_payments WHERE id=$1`, id)
	return scanPayment(row)
}

func (r *txRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM payroll_payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.EmployeeID, &p.Amount, &p.PaymentAccountID, &p.Note, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

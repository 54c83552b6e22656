package treasury

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
	// ErrTransferNotFound indicates the transfer does not exist.
	ErrTransferNotFound = fmt.Errorf("treasury: transfer: %w", shared.ErrNotFound)
	// ErrLoanNotFound indicates the loan does not exist.
	ErrLoanNotFound = fmt.Errorf("treasury: loan: %w", shared.ErrNotFound)
	// ErrRepaymentNotFound indicates the repayment does not exist.
	ErrRepaymentNotFound = fmt.Errorf("treasury: repayment: %w", shared.ErrNotFound)
	// ErrCheckNotFound indicates the check does not exist.
	ErrCheckNotFound = fmt.Errorf("treasury: check: %w", shared.ErrNotFound)
)

// TxRepository exposes treasury and ledger operations inside one transaction.
type TxRepository interface {
	ledger.TxRepository
	CreateTransfer(ctx context.Context, t Transfer) (Transfer, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (Transfer, error)
	DeleteTransfer(ctx context.Context, id uuid.UUID) error
	CreateLoan(ctx context.Context, l Loan) (Loan, error)
	GetLoan(ctx context.Context, id uuid.UUID) (Loan, error)
	IncrementLoanOutstanding(ctx context.Context, id uuid.UUID, delta int64) error
	CreateRepayment(ctx context.Context, r LoanRepayment) (LoanRepayment, error)
	GetRepayment(ctx context.Context, id uuid.UUID) (LoanRepayment, error)
	DeleteRepayment(ctx context.Context, id uuid.UUID) error
	CreateCheck(ctx context.Context, c Check) (Check, error)
	GetCheck(ctx context.Context, id uuid.UUID) (Check, error)
	UpdateCheckStatus(ctx context.Context, id uuid.UUID, status CheckStatus, passedAt *time.Time) error
	DeleteCheck(ctx context.Context, id uuid.UUID) error
}

// Repository provides treasury storage plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTransfer(ctx context.Context, id uuid.UUID) (Transfer, error)
	ListTransfers(ctx context.Context) ([]Transfer, error)
	GetLoan(ctx context.Context, id uuid.UUID) (Loan, error)
	ListLoans(ctx context.Context) ([]Loan, error)
	GetCheck(ctx context.Context, id uuid.UUID) (Check, error)
	ListChecks(ctx context.Context, status CheckStatus) ([]Check, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed treasury repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxStore: ledger.NewTxStore(tx), tx: tx})
	})
}

func (r *repository) GetTransfer(ctx context.Context, id uuid.UUID) (Transfer, error) {
	return getTransfer(ctx, r.db, id)
}

func (r *repository) ListTransfers(ctx context.Context) ([]Transfer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, amount, transfer_date, note, from_kind, from_account_id, from_party_id,
to_kind, to_account_id, to_party_id, created_at FROM transfers ORDER BY transfer_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) GetLoan(ctx context.Context, id uuid.UUID) (Loan, error) {
	return getLoan(ctx, r.db, id)
}

func (r *repository) ListLoans(ctx context.Context) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT id, lender, principal, outstanding, issued_at, created_at
FROM loans ORDER BY issued_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.ID, &l.Lender, &l.Principal, &l.Outstanding, &l.IssuedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) GetCheck(ctx context.Context, id uuid.UUID) (Check, error) {
	return getCheck(ctx, r.db, id)
}

func (r *repository) ListChecks(ctx context.Context, status CheckStatus) ([]Check, error) {
	query := `SELECT id, payee, amount, due_date, status, supplier_id, category, passed_at, created_at FROM checks`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY due_date`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type txRepository struct {
	*ledger.TxStore
	tx pgx.Tx
}

func (r *txRepository) CreateTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO transfers (id, amount, transfer_date, note, from_kind, from_account_id,
from_party_id, to_kind, to_account_id, to_party_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING created_at`,
		t.ID, t.Amount, t.Date, t.Note,
		t.From.Kind, nilZero(t.From.AccountID), nilUUID(t.From.PartyID),
		t.To.Kind, nilZero(t.To.AccountID), nilUUID(t.To.PartyID))
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Transfer{}, err
	}
	return t, nil
}

func (r *txRepository) GetTransfer(ctx context.Context, id uuid.UUID) (Transfer, error) {
	return getTransfer(ctx, r.tx, id)
}

func (r *txRepository) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transfers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransferNotFound
	}
	return nil
}

func (r *txRepository) CreateLoan(ctx context.Context, l Loan) (Loan, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO loans (id, lender, principal, outstanding, issued_at)
VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		l.ID, l.Lender, l.Principal, l.Outstanding, l.IssuedAt)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return Loan{}, err
	}
	return l, nil
}

func (r *txRepository) GetLoan(ctx context.Context, id uuid.UUID) (Loan, error) {
	return getLoan(ctx, r.tx, id)
}

func (r *txRepository) IncrementLoanOutstanding(ctx context.Context, id uuid.UUID, delta int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE loans SET outstanding = outstanding + $2 WHERE id=$1`, id, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *txRepository) CreateRepayment(ctx context.Context, rep LoanRepayment) (LoanRepayment, error) {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO loan_repayments (id, loan_id, amount, paid_at)
VALUES ($1,$2,$3,$4) RETURNING created_at`,
		rep.ID, rep.LoanID, rep.Amount, rep.PaidAt)
	if err := row.Scan(&rep.CreatedAt); err != nil {
		return LoanRepayment{}, err
	}
	return rep, nil
}

func (r *txRepository) GetRepayment(ctx context.Context, id uuid.UUID) (LoanRepayment, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, loan_id, amount, paid_at, created_at FROM loan_repayments WHERE id=$1`, id)
	var rep LoanRepayment
	err := row.Scan(&rep.ID, &rep.LoanID, &rep.Amount, &rep.PaidAt, &rep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoanRepayment{}, ErrRepaymentNotFound
		}
		return LoanRepayment{}, err
	}
	return rep, nil
}

func (r *txRepository) DeleteRepayment(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM loan_repayments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRepaymentNotFound
	}
	return nil
}

func (r *txRepository) CreateCheck(ctx context.Context, c Check) (Check, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO checks (id, payee, amount, due_date, status, supplier_id, category, passed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at`,
		c.ID, c.Payee, c.Amount, c.DueDate, c.Status, c.SupplierID, c.Category, c.PassedAt)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Check{}, err
	}
	return c, nil
}

func (r *txRepository) GetCheck(ctx context.Context, id uuid.UUID) (Check, error) {
	return getCheck(ctx, r.tx, id)
}

func (r *txRepository) UpdateCheckStatus(ctx context.Context, id uuid.UUID, status CheckStatus, passedAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE checks SET status=$2, passed_at=$3 WHERE id=$1`, id, status, passedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCheckNotFound
	}
	return nil
}

func (r *txRepository) DeleteCheck(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM checks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCheckNotFound
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getTransfer(ctx context.Context, q queryer, id uuid.UUID) (Transfer, error) {
	row := q.QueryRow(ctx, `SELECT id, amount, transfer_date, note, from_kind, from_account_id, from_party_id,
to_kind, to_account_id, to_party_id, created_at FROM transfers WHERE id=$1`, id)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrTransferNotFound
		}
		return Transfer{}, err
	}
	return t, nil
}

func scanTransfer(row rowScanner) (Transfer, error) {
	var t Transfer
	var fromAccount, toAccount *int64
	var fromParty, toParty *uuid.UUID
	err := row.Scan(&t.ID, &t.Amount, &t.Date, &t.Note,
		&t.From.Kind, &fromAccount, &fromParty,
		&t.To.Kind, &toAccount, &toParty, &t.CreatedAt)
	if err != nil {
		return Transfer{}, err
	}
	if fromAccount != nil {
		t.From.AccountID = *fromAccount
	}
	if fromParty != nil {
		t.From.PartyID = *fromParty
	}
	if toAccount != nil {
		t.To.AccountID = *toAccount
	}
	if toParty != nil {
		t.To.PartyID = *toParty
	}
	return t, nil
}

func getLoan(ctx context.Context, q queryer, id uuid.UUID) (Loan, error) {
	row := q.QueryRow(ctx, `SELECT id, lender, principal, outstanding, issued_at, created_at FROM loans WHERE id=$1`, id)
	var l Loan
	err := row.Scan(&l.ID, &l.Lender, &l.Principal, &l.Outstanding, &l.IssuedAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}
	return l, nil
}

func getCheck(ctx context.Context, q queryer, id uuid.UUID) (Check, error) {
	row := q.QueryRow(ctx, `SELECT id, payee, amount, due_date, status, supplier_id, category, passed_at, created_at
FROM checks WHERE id=$1`, id)
	c, err := scanCheck(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Check{}, ErrCheckNotFound
		}
		return Check{}, err
	}
	return c, nil
}

func scanCheck(row rowScanner) (Check, error) {
	var c Check
	err := row.Scan(&c.ID, &c.Payee, &c.Amount, &c.DueDate, &c.Status, &c.SupplierID, &c.Category, &c.PassedAt, &c.CreatedAt)
	if err != nil {
		return Check{}, err
	}
	return c, nil
}

func nilZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nilUUID(v uuid.UUID) *uuid.UUID {
	if v == uuid.Nil {
		return nil
	}
	return &v
}

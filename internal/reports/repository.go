package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
)

// AccountLine is one journal line enriched with its entry's date and
// description, as rendered on an account card.
type AccountLine struct {
	EntryID     int64     `json:"entry_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Module      string    `json:"module"`
	Debit       int64     `json:"debit"`
	Credit      int64     `json:"credit"`
	Balance     int64     `json:"balance"`
}

// Repository provides the read queries the report projections need.
type Repository interface {
	GetAccount(ctx context.Context, id int64) (ledger.Account, error)
	ListAccountLines(ctx context.Context, accountID int64) ([]AccountLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed reports repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	var a ledger.Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, balance, is_active, created_at, updated_at
FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrAccountNotFound
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *repository) ListAccountLines(ctx context.Context, accountID int64) ([]AccountLine, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.date, e.description, e.module, l.debit, l.credit
FROM journal_lines l JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id=$1 ORDER BY e.date, e.id, l.id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountLine
	for rows.Next() {
		var line AccountLine
		if err := rows.Scan(&line.EntryID, &line.Date, &line.Description, &line.Module, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

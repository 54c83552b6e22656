package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
)

// TxRepository exposes ledger operations available inside a transaction.
// Domain packages embed it in their own transactional repositories so their
// business records commit atomically with the journal effects.
type TxRepository interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	IncrementAccountBalance(ctx context.Context, id int64, delta int64) error
	InsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	GetJournalByReference(ctx context.Context, module string, reference uuid.UUID) (JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, id int64) error
	IncrementPartyBalance(ctx context.Context, kind EntityKind, id uuid.UUID, delta int64) error
}

// Repository provides read access plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListAccounts(ctx context.Context) ([]Account, error)
	ListJournal(ctx context.Context, limit int) ([]JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed ledger repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

func (r *repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, type, balance, is_active, created_at, updated_at
FROM accounts ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *repository) ListJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT id, date, description, module, reference, created_at
FROM journal_entries ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Module, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		lines, err := r.listLines(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func (r *repository) listLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	rows, err := r.db.Query(ctx, `SELECT id, je_id, account_id, account_name, debit, credit
FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// TxStore is the pgx-backed TxRepository. It is exported so domain
// repositories can embed it in their own transaction wrappers.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps a pgx transaction.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// Tx exposes the underlying transaction to embedding repositories.
func (s *TxStore) Tx() pgx.Tx {
	return s.tx
}

func (s *TxStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.tx.Query(ctx, `SELECT id, code, name, type, balance, is_active, created_at, updated_at
FROM accounts ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (s *TxStore) GetAccount(ctx context.Context, id int64) (Account, error) {
	var a Account
	err := s.tx.QueryRow(ctx, `SELECT id, code, name, type, balance, is_active, created_at, updated_at
FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// IncrementAccountBalance applies a relative update so concurrent increments
// from different operations commute.
func (s *TxStore) IncrementAccountBalance(ctx context.Context, id int64, delta int64) error {
	cmd, err := s.tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id=$1`, id, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// isDuplicateReference detects the unique constraint guarding one journal
// entry per (module, reference).
func isDuplicateReference(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_reference"
}

func (s *TxStore) InsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := s.tx.QueryRow(ctx, `INSERT INTO journal_entries (date, description, module, reference)
VALUES ($1,$2,$3,$4) RETURNING id, created_at`, entry.Date, entry.Description, entry.Module, entry.Reference)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		if isDuplicateReference(err) {
			return JournalEntry{}, ErrReferencePosted
		}
		return JournalEntry{}, err
	}
	for i := range entry.Lines {
		line := &entry.Lines[i]
		line.JournalID = entry.ID
		if err := s.tx.QueryRow(ctx, `INSERT INTO journal_lines (je_id, account_id, account_name, debit, credit)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, entry.ID, line.AccountID, line.AccountName, line.Debit, line.Credit).Scan(&line.ID); err != nil {
			return JournalEntry{}, err
		}
	}
	return entry, nil
}

func (s *TxStore) GetJournalByReference(ctx context.Context, module string, reference uuid.UUID) (JournalEntry, error) {
	var e JournalEntry
	err := s.tx.QueryRow(ctx, `SELECT id, date, description, module, reference, created_at
FROM journal_entries WHERE module=$1 AND reference=$2`, module, reference).
		Scan(&e.ID, &e.Date, &e.Description, &e.Module, &e.Reference, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := s.tx.Query(ctx, `SELECT id, je_id, account_id, account_name, debit, credit
FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, e.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	lines, err := scanLines(rows)
	if err != nil {
		return JournalEntry{}, err
	}
	e.Lines = lines
	return e, nil
}

func (s *TxStore) DeleteJournalEntry(ctx context.Context, id int64) error {
	if _, err := s.tx.Exec(ctx, `DELETE FROM journal_lines WHERE je_id=$1`, id); err != nil {
		return err
	}
	cmd, err := s.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *TxStore) IncrementPartyBalance(ctx context.Context, kind EntityKind, id uuid.UUID, delta int64) error {
	cmd, err := s.tx.Exec(ctx, `UPDATE parties SET balance = balance + $3, updated_at = NOW() WHERE id=$1 AND kind=$2`, id, kind, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPartyNotFound
	}
	return nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanLines(rows pgx.Rows) ([]JournalLine, error) {
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.AccountName, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

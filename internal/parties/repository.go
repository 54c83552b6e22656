package parties

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// ErrPartyNotFound indicates the party does not exist.
var ErrPartyNotFound = fmt.Errorf("parties: party: %w", shared.ErrNotFound)

// Repository provides party storage.
type Repository interface {
	Create(ctx context.Context, party Party) (Party, error)
	Get(ctx context.Context, id uuid.UUID) (Party, error)
	List(ctx context.Context, kind ledger.EntityKind) ([]Party, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed party repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, party Party) (Party, error) {
	if party.ID == uuid.Nil {
		party.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `INSERT INTO parties (id, kind, name, phone, balance, monthly_salary)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`,
		party.ID, party.Kind, party.Name, party.Phone, party.Balance, party.MonthlySalary)
	if err := row.Scan(&party.CreatedAt, &party.UpdatedAt); err != nil {
		return Party{}, err
	}
	return party, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Party, error) {
	var p Party
	err := r.db.QueryRow(ctx, `SELECT id, kind, name, phone, balance, monthly_salary, created_at, updated_at
FROM parties WHERE id=$1`, id).
		Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Balance, &p.MonthlySalary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Party{}, ErrPartyNotFound
		}
		return Party{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, kind ledger.EntityKind) ([]Party, error) {
	query := `SELECT id, kind, name, phone, balance, monthly_salary, created_at, updated_at FROM parties`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind=$1`
		args = append(args, kind)
	}
	query += ` ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Balance, &p.MonthlySalary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

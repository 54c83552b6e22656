package parties

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Service manages parties.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput describes a new party.
type CreateInput struct {
	Kind          ledger.EntityKind
	Name          string
	Phone         string
	MonthlySalary *int64
}

// Create validates and stores a new party with a zero opening balance.
func (s *Service) Create(ctx context.Context, input CreateInput) (Party, error) {
	if !input.Kind.IsParty() {
		return Party{}, fmt.Errorf("parties: kind %q is not a party kind: %w", input.Kind, shared.ErrValidation)
	}
	if input.Name == "" {
		return Party{}, fmt.Errorf("parties: name required: %w", shared.ErrValidation)
	}
	if input.MonthlySalary != nil && input.Kind != ledger.KindEmployee {
		return Party{}, fmt.Errorf("parties: salary only applies to employees: %w", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Party{
		Kind:          input.Kind,
		Name:          input.Name,
		Phone:         input.Phone,
		MonthlySalary: input.MonthlySalary,
	})
}

// Get fetches one party.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Party, error) {
	return s.repo.Get(ctx, id)
}

// List returns parties, optionally filtered by kind.
func (s *Service) List(ctx context.Context, kind ledger.EntityKind) ([]Party, error) {
	if kind != "" && !kind.IsParty() {
		return nil, fmt.Errorf("parties: kind %q is not a party kind: %w", kind, shared.ErrValidation)
	}
	return s.repo.List(ctx, kind)
}

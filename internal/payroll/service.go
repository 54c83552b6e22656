package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Service records salary payments.
type Service struct {
	repo     Repository
	poster   *ledger.Poster
	reverser *ledger.Reverser
	resolver *ledger.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, poster *ledger.Poster, reverser *ledger.Reverser, resolver *ledger.Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, poster: poster, reverser: reverser, resolver: resolver, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// PayInput describes one salary payment.
type PayInput struct {
	EmployeeID       *uuid.UUID
	Amount           int64
	PaymentAccountID *int64
	Note             string
}

// Pay posts a salary payment: debit salary expense, credit the chosen asset
// account.
func (s *Service) Pay(ctx context.Context, input PayInput) (Payment, error) {
	if input.Amount <= 0 {
		return Payment{}, fmt.Errorf("payroll: amount must be positive: %w", shared.ErrValidation)
	}
	var created Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreatePayment(ctx, Payment{
			EmployeeID:       input.EmployeeID,
			Amount:           input.Amount,
			PaymentAccountID: input.PaymentAccountID,
			Note:             input.Note,
			PaidAt:           s.now(),
		})
		if err != nil {
			return err
		}
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		salary, err := s.resolver.ByCode(accounts, ledger.CodeSalaryExpense)
		if err != nil {
			return err
		}
		payment, err := s.resolver.PaymentAccount(accounts, input.PaymentAccountID)
		if err != nil {
			return err
		}
		_, err = s.poster.Post(ctx, tx, ledger.PostingInput{
			Date:        created.PaidAt,
			Description: "پرداخت حقوق",
			Module:      Module,
			Reference:   created.ID,
			Lines: []ledger.LineInput{
				{AccountID: salary.ID, AccountName: salary.Name, Debit: input.Amount},
				{AccountID: payment.ID, AccountName: payment.Name, Credit: input.Amount},
			},
		})
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	return created, nil
}

// Delete reverses the payment's journal entry and removes the record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.reverser.Unpost(ctx, tx, Module, payment.ID); err != nil {
			if errors.Is(err, ledger.ErrEntryNotFound) {
				s.logger.Warn("payment had no journal entry to reverse", slog.String("payment_id", payment.ID.String()))
			} else {
				return err
			}
		}
		return tx.DeletePayment(ctx, id)
	})
}

// Get fetches one payment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// List returns payments, newest first.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.ListPayments(ctx)
}

package treasury

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

// Service handles transfers, loans and payable checks.
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

// TransferInput describes a transfer between two entities.
type TransferInput struct {
	Amount int64
	Note   string
	From   ledger.EntityRef
	To     ledger.EntityRef
}

func validateRef(ref ledger.EntityRef, side string) error {
	switch {
	case ref.Kind == ledger.KindAccount:
		if ref.AccountID == 0 {
			return fmt.Errorf("treasury: %s account id required: %w", side, shared.ErrValidation)
		}
	case ref.Kind.IsParty():
		if ref.PartyID == uuid.Nil {
			return fmt.Errorf("treasury: %s party id required: %w", side, shared.ErrValidation)
		}
	default:
		return fmt.Errorf("treasury: unknown %s kind %q: %w", side, ref.Kind, shared.ErrValidation)
	}
	return nil
}

func (in TransferInput) validate() error {
	if in.Amount <= 0 {
		return fmt.Errorf("treasury: amount must be positive: %w", shared.ErrValidation)
	}
	if err := validateRef(in.From, "source"); err != nil {
		return err
	}
	if err := validateRef(in.To, "destination"); err != nil {
		return err
	}
	if in.From == in.To {
		return fmt.Errorf("treasury: source and destination must differ: %w", shared.ErrValidation)
	}
	return nil
}

// AddTransfer posts a transfer. The journal debits the destination's account
// (a party's control account) and credits the source's; party balances move
// by +amount on the source and -amount on the destination.
func (s *Service) AddTransfer(ctx context.Context, input TransferInput) (Transfer, error) {
	if err := input.validate(); err != nil {
		return Transfer{}, err
	}
	var created Transfer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreateTransfer(ctx, Transfer{
			Amount: input.Amount,
			Date:   s.now(),
			Note:   input.Note,
			From:   input.From,
			To:     input.To,
		})
		if err != nil {
			return err
		}
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		creditAccount, err := s.resolveRef(accounts, input.From)
		if err != nil {
			return err
		}
		debitAccount, err := s.resolveRef(accounts, input.To)
		if err != nil {
			return err
		}
		posting := ledger.PostingInput{
			Date:        created.Date,
			Description: transferDescription(input.Note),
			Module:      TransferModule,
			Reference:   created.ID,
			Lines: []ledger.LineInput{
				{AccountID: debitAccount.ID, AccountName: debitAccount.Name, Debit: input.Amount},
				{AccountID: creditAccount.ID, AccountName: creditAccount.Name, Credit: input.Amount},
			},
			PartyDeltas: transferPartyDeltas(input.From, input.To, input.Amount),
		}
		_, err = s.poster.Post(ctx, tx, posting)
		return err
	})
	if err != nil {
		return Transfer{}, err
	}
	return created, nil
}

// DeleteTransfer reverses the transfer's journal entry and party deltas and
// removes the record.
func (s *Service) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		transfer, err := tx.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.reverser.Unpost(ctx, tx, TransferModule, transfer.ID); err != nil {
			if errors.Is(err, ledger.ErrEntryNotFound) {
				s.logger.Warn("transfer had no journal entry to reverse", slog.String("transfer_id", transfer.ID.String()))
			} else {
				return err
			}
		}
		for _, delta := range transferPartyDeltas(transfer.From, transfer.To, transfer.Amount) {
			if err := tx.IncrementPartyBalance(ctx, delta.Kind, delta.PartyID, -delta.Delta); err != nil {
				return err
			}
		}
		return tx.DeleteTransfer(ctx, id)
	})
}

// GetTransfer fetches one transfer.
func (s *Service) GetTransfer(ctx context.Context, id uuid.UUID) (Transfer, error) {
	return s.repo.GetTransfer(ctx, id)
}

// ListTransfers returns transfers, newest first.
func (s *Service) ListTransfers(ctx context.Context) ([]Transfer, error) {
	return s.repo.ListTransfers(ctx)
}

// LoanInput describes a new borrowing.
type LoanInput struct {
	Lender           string
	Principal        int64
	PaymentAccountID *int64
}

// IssueLoan records a borrowing: the money lands in the chosen asset account
// against the loans payable account.
func (s *Service) IssueLoan(ctx context.Context, input LoanInput) (Loan, error) {
	if input.Principal <= 0 {
		return Loan{}, fmt.Errorf("treasury: principal must be positive: %w", shared.ErrValidation)
	}
	if input.Lender == "" {
		return Loan{}, fmt.Errorf("treasury: lender required: %w", shared.ErrValidation)
	}
	var created Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreateLoan(ctx, Loan{
			Lender:      input.Lender,
			Principal:   input.Principal,
			Outstanding: input.Principal,
			IssuedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		asset, err := s.resolver.PaymentAccount(accounts, input.PaymentAccountID)
		if err != nil {
			return err
		}
		payable, err := s.resolver.ByCode(accounts, ledger.CodeLoansPayable)
		if err != nil {
			return err
		}
		_, err = s.poster.Post(ctx, tx, ledger.PostingInput{
			Date:        created.IssuedAt,
			Description: fmt.Sprintf("دریافت وام از %s", input.Lender),
			Module:      LoanModule,
			Reference:   created.ID,
			Lines: []ledger.LineInput{
				{AccountID: asset.ID, AccountName: asset.Name, Debit: input.Principal},
				{AccountID: payable.ID, AccountName: payable.Name, Credit: input.Principal},
			},
		})
		return err
	})
	if err != nil {
		return Loan{}, err
	}
	return created, nil
}

// Repay pays down a loan and decrements the outstanding amount.
func (s *Service) Repay(ctx context.Context, loanID uuid.UUID, amount int64, paymentAccountID *int64) (LoanRepayment, error) {
	if amount <= 0 {
		return LoanRepayment{}, fmt.Errorf("treasury: amount must be positive: %w", shared.ErrValidation)
	}
	var created LoanRepayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		loan, err := tx.GetLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if amount > loan.Outstanding {
			return fmt.Errorf("treasury: repayment %d exceeds outstanding %d: %w",
				amount, loan.Outstanding, shared.ErrValidation)
		}
		created, err = tx.CreateRepayment(ctx, LoanRepayment{
			LoanID: loan.ID,
			Amount: amount,
			PaidAt: s.now(),
		})
		if err != nil {
			return err
		}
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		payable, err := s.resolver.ByCode(accounts, ledger.CodeLoansPayable)
		if err != nil {
			return err
		}
		asset, err := s.resolver.PaymentAccount(accounts, paymentAccountID)
		if err != nil {
			return err
		}
		_, err = s.poster.Post(ctx, tx, ledger.PostingInput{
			Date:        created.PaidAt,
			Description: fmt.Sprintf("بازپرداخت وام %s", loan.Lender),
			Module:      RepaymentModule,
			Reference:   created.ID,
			Lines: []ledger.LineInput{
				{AccountID: payable.ID, AccountName: payable.Name, Debit: amount},
				{AccountID: asset.ID, AccountName: asset.Name, Credit: amount},
			},
		})
		if err != nil {
			return err
		}
		return tx.IncrementLoanOutstanding(ctx, loan.ID, -amount)
	})
	if err != nil {
		return LoanRepayment{}, err
	}
	return created, nil
}

// DeleteRepayment reverses a repayment and restores the loan's outstanding
// amount.
func (s *Service) DeleteRepayment(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		repayment, err := tx.GetRepayment(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.reverser.Unpost(ctx, tx, RepaymentModule, repayment.ID); err != nil {
			if errors.Is(err, ledger.ErrEntryNotFound) {
				s.logger.Warn("repayment had no journal entry to reverse", slog.String("repayment_id", repayment.ID.String()))
			} else {
				return err
			}
		}
		if err := tx.IncrementLoanOutstanding(ctx, repayment.LoanID, repayment.Amount); err != nil {
			return err
		}
		return tx.DeleteRepayment(ctx, id)
	})
}

// GetLoan fetches one loan.
func (s *Service) GetLoan(ctx context.Context, id uuid.UUID) (Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

// ListLoans returns loans, newest first.
func (s *Service) ListLoans(ctx context.Context) ([]Loan, error) {
	return s.repo.ListLoans(ctx)
}

// CheckInput describes a new payable check.
type CheckInput struct {
	Payee      string
	Amount     int64
	DueDate    time.Time
	SupplierID *uuid.UUID
	Category   string
}

// RegisterCheck records a payable check. No financial effect until it passes.
func (s *Service) RegisterCheck(ctx context.Context, input CheckInput) (Check, error) {
	if input.Amount <= 0 {
		return Check{}, fmt.Errorf("treasury: amount must be positive: %w", shared.ErrValidation)
	}
	if input.Payee == "" {
		return Check{}, fmt.Errorf("treasury: payee required: %w", shared.ErrValidation)
	}
	if input.SupplierID == nil && input.Category == "" {
		return Check{}, fmt.Errorf("treasury: supplier or expense category required: %w", shared.ErrValidation)
	}
	var created Check
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreateCheck(ctx, Check{
			Payee:      input.Payee,
			Amount:     input.Amount,
			DueDate:    input.DueDate,
			Status:     CheckIssued,
			SupplierID: input.SupplierID,
			Category:   input.Category,
		})
		return err
	})
	if err != nil {
		return Check{}, err
	}
	return created, nil
}

// PassCheck posts the check's journal entry: against accounts payable for a
// supplier check (decreasing the supplier balance) or the category expense
// account otherwise, with the money leaving the bank account.
func (s *Service) PassCheck(ctx context.Context, id uuid.UUID) (Check, error) {
	var passed Check
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		check, err := tx.GetCheck(ctx, id)
		if err != nil {
			return err
		}
		if check.Status != CheckIssued {
			return fmt.Errorf("treasury: only issued checks can pass: %w", shared.ErrInvalidState)
		}
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		var debit ledger.Account
		var deltas []ledger.PartyDelta
		if check.SupplierID != nil {
			debit, err = s.resolver.ByCode(accounts, ledger.CodeAccountsPayable)
			if err != nil {
				return err
			}
			deltas = []ledger.PartyDelta{
				{Kind: ledger.KindSupplier, PartyID: *check.SupplierID, Delta: -check.Amount},
			}
		} else {
			debit, err = s.resolver.ExpenseByCategory(accounts, check.Category)
			if err != nil {
				return err
			}
		}
		bank, err := s.resolver.ByCode(accounts, ledger.CodeBank)
		if err != nil {
			return err
		}
		_, err = s.poster.Post(ctx, tx, ledger.PostingInput{
			Date:        s.now(),
			Description: fmt.Sprintf("وصول چک %s", check.Payee),
			Module:      CheckModule,
			Reference:   check.ID,
			Lines: []ledger.LineInput{
				{AccountID: debit.ID, AccountName: debit.Name, Debit: check.Amount},
				{AccountID: bank.ID, AccountName: bank.Name, Credit: check.Amount},
			},
			PartyDeltas: deltas,
		})
		if err != nil {
			return err
		}
		now := s.now()
		if err := tx.UpdateCheckStatus(ctx, check.ID, CheckPassed, &now); err != nil {
			return err
		}
		passed = check
		passed.Status = CheckPassed
		passed.PassedAt = &now
		return nil
	})
	if err != nil {
		return Check{}, err
	}
	return passed, nil
}

// DeleteCheck removes the check, reversing its journal entry and supplier
// balance delta if it already passed.
func (s *Service) DeleteCheck(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		check, err := tx.GetCheck(ctx, id)
		if err != nil {
			return err
		}
		if check.Status == CheckPassed {
			if _, err := s.reverser.Unpost(ctx, tx, CheckModule, check.ID); err != nil {
				if errors.Is(err, ledger.ErrEntryNotFound) {
					s.logger.Warn("passed check had no journal entry to reverse", slog.String("check_id", check.ID.String()))
				} else {
					return err
				}
			}
			if check.SupplierID != nil {
				if err := tx.IncrementPartyBalance(ctx, ledger.KindSupplier, *check.SupplierID, check.Amount); err != nil {
					return err
				}
			}
		}
		return tx.DeleteCheck(ctx, id)
	})
}

// GetCheck fetches one check.
func (s *Service) GetCheck(ctx context.Context, id uuid.UUID) (Check, error) {
	return s.repo.GetCheck(ctx, id)
}

// ListChecks returns checks, optionally filtered by status.
func (s *Service) ListChecks(ctx context.Context, status CheckStatus) ([]Check, error) {
	return s.repo.ListChecks(ctx, status)
}

// resolveRef maps a transfer endpoint to the account its journal line hits:
// the account itself, or the party kind's control account.
func (s *Service) resolveRef(accounts []ledger.Account, ref ledger.EntityRef) (ledger.Account, error) {
	if ref.Kind == ledger.KindAccount {
		return s.resolver.ByID(accounts, ref.AccountID)
	}
	return s.resolver.ControlAccount(accounts, ref.Kind)
}

func transferPartyDeltas(from, to ledger.EntityRef, amount int64) []ledger.PartyDelta {
	var deltas []ledger.PartyDelta
	if from.Kind.IsParty() {
		deltas = append(deltas, ledger.PartyDelta{Kind: from.Kind, PartyID: from.PartyID, Delta: amount})
	}
	if to.Kind.IsParty() {
		deltas = append(deltas, ledger.PartyDelta{Kind: to.Kind, PartyID: to.PartyID, Delta: -amount})
	}
	return deltas
}

func transferDescription(note string) string {
	if note != "" {
		return note
	}
	return "انتقال وجه"
}

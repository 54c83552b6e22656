package sales

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

// Service records sales and drives the subscription lifecycle. All money
// movement goes through the ledger poster/reverser inside one transaction per
// action.
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

// CardInput is one card-to-card payment in a cafe sale.
type CardInput struct {
	Amount int64
	Note   string
}

// CreateInput describes a new sale. Cafe sales fill the gross/breakdown
// fields; subscription and assessment sales fill Amount.
type CreateInput struct {
	Stream           Stream
	Amount           int64
	GrossAmount      int64
	Discount         int64
	Refund           int64
	CashAmount       int64
	PosAmount        int64
	CardToCard       []CardInput
	IsCredit         bool
	PaymentAccountID *int64
	CustomerID       *uuid.UUID
	Description      string
}

func (in CreateInput) cardTotal() int64 {
	var total int64
	for _, c := range in.CardToCard {
		total += c.Amount
	}
	return total
}

func (in CreateInput) validate() error {
	switch in.Stream {
	case StreamCafe:
		if in.GrossAmount <= 0 {
			return fmt.Errorf("sales: gross amount must be positive: %w", shared.ErrValidation)
		}
		if in.Discount < 0 || in.Refund < 0 || in.CashAmount < 0 || in.PosAmount < 0 {
			return fmt.Errorf("sales: breakdown amounts must not be negative: %w", shared.ErrValidation)
		}
		for _, c := range in.CardToCard {
			if c.Amount <= 0 {
				return fmt.Errorf("sales: card transaction amount must be positive: %w", shared.ErrValidation)
			}
		}
		net := in.GrossAmount - in.Discount - in.Refund
		received := in.CashAmount + in.PosAmount + in.cardTotal()
		if received != net {
			return fmt.Errorf("sales: received %d does not match net %d (gross - discount - refund): %w",
				received, net, shared.ErrValidation)
		}
	case StreamSubscription:
		if in.Amount <= 0 {
			return fmt.Errorf("sales: amount must be positive: %w", shared.ErrValidation)
		}
		if in.CustomerID == nil {
			return fmt.Errorf("sales: subscription sale requires a customer: %w", shared.ErrValidation)
		}
	case StreamAssessment:
		if in.Amount <= 0 {
			return fmt.Errorf("sales: amount must be positive: %w", shared.ErrValidation)
		}
	default:
		return fmt.Errorf("sales: unknown stream %q: %w", in.Stream, shared.ErrValidation)
	}
	if in.IsCredit && in.Stream != StreamSubscription {
		return fmt.Errorf("sales: credit sales are only supported for subscriptions: %w", shared.ErrValidation)
	}
	return nil
}

// Create records the sale and posts its journal entry atomically. Subscription
// sales also open a Subscription renewing one month out.
func (s *Service) Create(ctx context.Context, input CreateInput) (Sale, error) {
	if err := input.validate(); err != nil {
		return Sale{}, err
	}
	var created Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale := saleFromInput(input, s.now())
		if input.Stream == StreamSubscription {
			sub, err := tx.CreateSubscription(ctx, Subscription{
				CustomerID: *input.CustomerID,
				Amount:     input.Amount,
				Status:     SubscriptionActive,
				IsCredit:   input.IsCredit,
				StartedAt:  sale.Date,
				RenewsAt:   sale.Date.AddDate(0, 1, 0),
			})
			if err != nil {
				return err
			}
			sale.SubscriptionID = &sub.ID
		}
		var err error
		created, err = s.postSaleTx(ctx, tx, sale)
		return err
	})
	if err != nil {
		return Sale{}, err
	}
	return created, nil
}

// Delete reverses the sale's journal entry and balance deltas, restores a
// credit customer's balance, and cascades to the linked subscription.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.reverser.Unpost(ctx, tx, Module, sale.ID); err != nil {
			if errors.Is(err, ledger.ErrEntryNotFound) {
				s.logger.Warn("sale had no journal entry to reverse", slog.String("sale_id", sale.ID.String()))
			} else {
				return err
			}
		}
		if sale.IsCredit && sale.CustomerID != nil {
			if err := tx.IncrementPartyBalance(ctx, ledger.KindCustomer, *sale.CustomerID, sale.Amount); err != nil {
				return err
			}
		}
		if sale.SubscriptionID != nil {
			if err := tx.DeleteSubscription(ctx, *sale.SubscriptionID); err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}
		}
		return tx.DeleteSale(ctx, id)
	})
}

// Cancel cancels an active subscription. A nonzero refund posts its own
// journal entry moving money out of deferred revenue and cash; the original
// sale entry is left untouched.
func (s *Service) Cancel(ctx context.Context, subscriptionID uuid.UUID, refund int64) (Subscription, error) {
	if refund < 0 {
		return Subscription{}, fmt.Errorf("sales: refund must not be negative: %w", shared.ErrValidation)
	}
	var cancelled Subscription
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sub, err := tx.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.Status != SubscriptionActive {
			return fmt.Errorf("sales: only active subscriptions can be cancelled: %w", shared.ErrInvalidState)
		}
		if refund > 0 {
			accounts, err := tx.ListAccounts(ctx)
			if err != nil {
				return err
			}
			deferred, err := s.resolver.ByCode(accounts, ledger.CodeDeferredRevenue)
			if err != nil {
				return err
			}
			cash, err := s.resolver.ByCode(accounts, ledger.CodeCash)
			if err != nil {
				return err
			}
			_, err = s.poster.Post(ctx, tx, ledger.PostingInput{
				Date:        s.now(),
				Description: "لغو اشتراک با استرداد وجه",
				Module:      CancelModule,
				Reference:   sub.ID,
				Lines: []ledger.LineInput{
					{AccountID: deferred.ID, AccountName: deferred.Name, Debit: refund},
					{AccountID: cash.ID, AccountName: cash.Name, Credit: refund},
				},
			})
			if err != nil {
				return err
			}
		}
		sub.Status = SubscriptionCancelled
		if err := tx.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
		cancelled = sub
		return nil
	})
	if err != nil {
		return Subscription{}, err
	}
	return cancelled, nil
}

// Renew posts a fresh subscription sale for the next period and advances the
// renewal date one month.
func (s *Service) Renew(ctx context.Context, subscriptionID uuid.UUID) (Sale, error) {
	var created Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sub, err := tx.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.Status != SubscriptionActive {
			return fmt.Errorf("sales: only active subscriptions can be renewed: %w", shared.ErrInvalidState)
		}
		sale := Sale{
			Stream:         StreamSubscription,
			Amount:         sub.Amount,
			IsCredit:       sub.IsCredit,
			CustomerID:     &sub.CustomerID,
			SubscriptionID: &sub.ID,
			Description:    "تمدید اشتراک",
			Date:           s.now(),
		}
		created, err = s.postSaleTx(ctx, tx, sale)
		if err != nil {
			return err
		}
		sub.RenewsAt = sub.RenewsAt.AddDate(0, 1, 0)
		return tx.UpdateSubscription(ctx, sub)
	})
	if err != nil {
		return Sale{}, err
	}
	return created, nil
}

// Get fetches one sale.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// List returns sales, optionally filtered by stream.
func (s *Service) List(ctx context.Context, stream Stream) ([]Sale, error) {
	return s.repo.ListSales(ctx, stream)
}

// GetSubscription fetches one subscription.
func (s *Service) GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

// ListSubscriptions returns every subscription.
func (s *Service) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

// ListDueSubscriptions returns active subscriptions due for renewal.
func (s *Service) ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]Subscription, error) {
	return s.repo.ListDueSubscriptions(ctx, asOf)
}

func saleFromInput(input CreateInput, date time.Time) Sale {
	sale := Sale{
		Stream:           input.Stream,
		Amount:           input.Amount,
		IsCredit:         input.IsCredit,
		PaymentAccountID: input.PaymentAccountID,
		CustomerID:       input.CustomerID,
		Description:      input.Description,
		Date:             date,
	}
	if input.Stream == StreamCafe {
		sale.GrossAmount = input.GrossAmount
		sale.Discount = input.Discount
		sale.Refund = input.Refund
		sale.CashAmount = input.CashAmount
		sale.PosAmount = input.PosAmount
		sale.Amount = input.CashAmount + input.PosAmount + input.cardTotal()
		for _, c := range input.CardToCard {
			sale.CardToCard = append(sale.CardToCard, CardTransaction{Amount: c.Amount, Note: c.Note})
		}
	}
	return sale
}

// postSaleTx stores the sale record and posts its journal entry. Runs inside
// the caller's transaction.
func (s *Service) postSaleTx(ctx context.Context, tx TxRepository, sale Sale) (Sale, error) {
	created, err := tx.CreateSale(ctx, sale)
	if err != nil {
		return Sale{}, err
	}
	accounts, err := tx.ListAccounts(ctx)
	if err != nil {
		return Sale{}, err
	}
	input := ledger.PostingInput{
		Date:      created.Date,
		Module:    Module,
		Reference: created.ID,
	}
	switch created.Stream {
	case StreamCafe:
		input.Description = "فروش کافه"
		input.Lines, err = s.cafeLines(accounts, created)
	case StreamSubscription:
		input.Description = "فروش اشتراک"
		input.Lines, input.PartyDeltas, err = s.subscriptionLines(accounts, created)
	case StreamAssessment:
		input.Description = "فروش ارزیابی"
		input.Lines, err = s.assessmentLines(accounts, created)
	}
	if err != nil {
		return Sale{}, err
	}
	if _, err := s.poster.Post(ctx, tx, input); err != nil {
		return Sale{}, err
	}
	return created, nil
}

// cafeLines builds the compound entry: conditional debit lines for each way
// money came in (or leaked out via discount/refund) against one gross revenue
// credit.
func (s *Service) cafeLines(accounts []ledger.Account, sale Sale) ([]ledger.LineInput, error) {
	var lines []ledger.LineInput
	if sale.CashAmount > 0 {
		cash, err := s.resolver.ByCode(accounts, ledger.CodeCash)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.LineInput{AccountID: cash.ID, AccountName: cash.Name, Debit: sale.CashAmount})
	}
	var cardTotal int64
	for _, c := range sale.CardToCard {
		cardTotal += c.Amount
	}
	if bankAmount := sale.PosAmount + cardTotal; bankAmount > 0 {
		bank, err := s.resolver.ByCode(accounts, ledger.CodeBank)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.LineInput{AccountID: bank.ID, AccountName: bank.Name, Debit: bankAmount})
	}
	if sale.Discount > 0 {
		discount, err := s.resolver.ByCode(accounts, ledger.CodeSalesDiscount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.LineInput{AccountID: discount.ID, AccountName: discount.Name, Debit: sale.Discount})
	}
	if sale.Refund > 0 {
		refund, err := s.resolver.ByCode(accounts, ledger.CodeSalesRefund)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.LineInput{AccountID: refund.ID, AccountName: refund.Name, Debit: sale.Refund})
	}
	revenue, err := s.resolver.ByCode(accounts, ledger.CodeCafeRevenue)
	if err != nil {
		return nil, err
	}
	lines = append(lines, ledger.LineInput{AccountID: revenue.ID, AccountName: revenue.Name, Credit: sale.GrossAmount})
	return lines, nil
}

func (s *Service) subscriptionLines(accounts []ledger.Account, sale Sale) ([]ledger.LineInput, []ledger.PartyDelta, error) {
	deferred, err := s.resolver.ByCode(accounts, ledger.CodeDeferredRevenue)
	if err != nil {
		return nil, nil, err
	}
	var debit ledger.Account
	var deltas []ledger.PartyDelta
	if sale.IsCredit {
		debit, err = s.resolver.ByCode(accounts, ledger.CodeAccountsReceivable)
		if err != nil {
			return nil, nil, err
		}
		deltas = []ledger.PartyDelta{
			{Kind: ledger.KindCustomer, PartyID: *sale.CustomerID, Delta: -sale.Amount},
		}
	} else {
		debit, err = s.resolver.PaymentAccount(accounts, sale.PaymentAccountID)
		if err != nil {
			return nil, nil, err
		}
	}
	lines := []ledger.LineInput{
		{AccountID: debit.ID, AccountName: debit.Name, Debit: sale.Amount},
		{AccountID: deferred.ID, AccountName: deferred.Name, Credit: sale.Amount},
	}
	return lines, deltas, nil
}

func (s *Service) assessmentLines(accounts []ledger.Account, sale Sale) ([]ledger.LineInput, error) {
	debit, err := s.resolver.PaymentAccount(accounts, sale.PaymentAccountID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.resolver.ByCode(accounts, ledger.CodeAssessmentRevenue)
	if err != nil {
		return nil, err
	}
	return []ledger.LineInput{
		{AccountID: debit.ID, AccountName: debit.Name, Debit: sale.Amount},
		{AccountID: revenue.ID, AccountName: revenue.Name, Credit: sale.Amount},
	}, nil
}

package sales_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/ledger/ledgertest"
	"github.com/hessekhub/hessekhub-finance/internal/sales"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

type memoryRepo struct {
	*ledgertest.Store
	sales         map[uuid.UUID]sales.Sale
	subscriptions map[uuid.UUID]sales.Subscription
	nextCardID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		Store:         ledgertest.NewStore(ledger.DefaultChart()),
		sales:         make(map[uuid.UUID]sales.Sale),
		subscriptions: make(map[uuid.UUID]sales.Subscription),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) CreateSale(ctx context.Context, s sales.Sale) (sales.Sale, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	for i := range s.CardToCard {
		r.nextCardID++
		s.CardToCard[i].ID = r.nextCardID
		s.CardToCard[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	return s, nil
}

func (r *memoryRepo) GetSale(ctx context.Context, id uuid.UUID) (sales.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return sales.Sale{}, sales.ErrSaleNotFound
	}
	return s, nil
}

func (r *memoryRepo) ListSales(ctx context.Context, stream sales.Stream) ([]sales.Sale, error) {
	var out []sales.Sale
	for _, s := range r.sales {
		if stream == "" || s.Stream == stream {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.sales[id]; !ok {
		return sales.ErrSaleNotFound
	}
	delete(r.sales, id)
	return nil
}

func (r *memoryRepo) CreateSubscription(ctx context.Context, sub sales.Subscription) (sales.Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = time.Now()
	r.subscriptions[sub.ID] = sub
	return sub, nil
}

func (r *memoryRepo) GetSubscription(ctx context.Context, id uuid.UUID) (sales.Subscription, error) {
	sub, ok := r.subscriptions[id]
	if !ok {
		return sales.Subscription{}, sales.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (r *memoryRepo) UpdateSubscription(ctx context.Context, sub sales.Subscription) error {
	if _, ok := r.subscriptions[sub.ID]; !ok {
		return sales.ErrSubscriptionNotFound
	}
	r.subscriptions[sub.ID] = sub
	return nil
}

func (r *memoryRepo) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.subscriptions[id]; !ok {
		return sales.ErrSubscriptionNotFound
	}
	delete(r.subscriptions, id)
	return nil
}

func (r *memoryRepo) ListSubscriptions(ctx context.Context) ([]sales.Subscription, error) {
	var out []sales.Subscription
	for _, sub := range r.subscriptions {
		out = append(out, sub)
	}
	return out, nil
}

func (r *memoryRepo) ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]sales.Subscription, error) {
	var out []sales.Subscription
	for _, sub := range r.subscriptions {
		if sub.Status == sales.SubscriptionActive && !sub.RenewsAt.After(asOf) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func newService(repo *memoryRepo) *sales.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return sales.NewService(repo,
		ledger.NewPoster(logger),
		ledger.NewReverser(logger),
		ledger.NewResolver(logger),
		logger)
}

func TestCafeSaleBuildsCompoundEntry(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:      sales.StreamCafe,
		GrossAmount: 4_800_000,
		Discount:    300_000,
		CashAmount:  4_500_000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4_500_000), sale.Amount)

	require.Equal(t, int64(4_500_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(300_000), repo.Balance(ledger.CodeSalesDiscount))
	require.Equal(t, int64(4_800_000), repo.Balance(ledger.CodeCafeRevenue))

	entry, found := repo.EntryByReference(sales.Module, sale.ID)
	require.True(t, found)
	require.Len(t, entry.Lines, 3)
	var debits, credits int64
	for _, line := range entry.Lines {
		debits += line.Debit
		credits += line.Credit
	}
	require.Equal(t, int64(4_800_000), debits)
	require.Equal(t, int64(4_800_000), credits)
}

func TestCafeSaleCardToCardLandsInBank(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:      sales.StreamCafe,
		GrossAmount: 3_000_000,
		CashAmount:  1_000_000,
		PosAmount:   1_200_000,
		CardToCard: []sales.CardInput{
			{Amount: 500_000, Note: "کارت به کارت"},
			{Amount: 300_000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3_000_000), sale.Amount)
	require.Len(t, sale.CardToCard, 2)

	require.Equal(t, int64(1_000_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(2_000_000), repo.Balance(ledger.CodeBank))
	require.Equal(t, int64(3_000_000), repo.Balance(ledger.CodeCafeRevenue))
}

func TestCafeSaleRejectsBreakdownMismatch(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	_, err := service.Create(context.Background(), sales.CreateInput{
		Stream:      sales.StreamCafe,
		GrossAmount: 4_800_000,
		Discount:    300_000,
		CashAmount:  4_800_000,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.Entries)
}

func TestDeleteCafeSaleRestoresBalances(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	before := repo.Balances()
	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:      sales.StreamCafe,
		GrossAmount: 4_800_000,
		Discount:    300_000,
		CashAmount:  4_500_000,
	})
	require.NoError(t, err)
	require.NotEqual(t, before, repo.Balances())

	require.NoError(t, service.Delete(context.Background(), sale.ID))

	require.Equal(t, before, repo.Balances())
	require.Empty(t, repo.Entries)
	_, err = service.Get(context.Background(), sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSubscriptionSaleCashOpensSubscription(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)
	cash := repo.AccountByCode(ledger.CodeCash)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:           sales.StreamSubscription,
		Amount:           1_200_000,
		CustomerID:       &customerID,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, sale.SubscriptionID)

	require.Equal(t, int64(1_200_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(1_200_000), repo.Balance(ledger.CodeDeferredRevenue))
	require.Zero(t, repo.PartyBalance(customerID))

	sub, err := service.GetSubscription(context.Background(), *sale.SubscriptionID)
	require.NoError(t, err)
	require.Equal(t, sales.SubscriptionActive, sub.Status)
	require.Equal(t, sub.StartedAt.AddDate(0, 1, 0), sub.RenewsAt)
}

func TestSubscriptionCreditSaleUsesReceivable(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)

	_, err := service.Create(context.Background(), sales.CreateInput{
		Stream:     sales.StreamSubscription,
		Amount:     1_200_000,
		IsCredit:   true,
		CustomerID: &customerID,
	})
	require.NoError(t, err)

	require.Equal(t, int64(1_200_000), repo.Balance(ledger.CodeAccountsReceivable))
	require.Equal(t, int64(1_200_000), repo.Balance(ledger.CodeDeferredRevenue))
	require.Zero(t, repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(-1_200_000), repo.PartyBalance(customerID))
}

func TestDeleteCreditSubscriptionSaleCascades(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:     sales.StreamSubscription,
		Amount:     1_200_000,
		IsCredit:   true,
		CustomerID: &customerID,
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), sale.ID))

	require.Zero(t, repo.Balance(ledger.CodeAccountsReceivable))
	require.Zero(t, repo.Balance(ledger.CodeDeferredRevenue))
	require.Zero(t, repo.PartyBalance(customerID))
	_, err = service.GetSubscription(context.Background(), *sale.SubscriptionID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCancelSubscriptionWithRefund(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)
	cash := repo.AccountByCode(ledger.CodeCash)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:           sales.StreamSubscription,
		Amount:           1_200_000,
		CustomerID:       &customerID,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	sub, err := service.Cancel(context.Background(), *sale.SubscriptionID, 500_000)
	require.NoError(t, err)
	require.Equal(t, sales.SubscriptionCancelled, sub.Status)

	require.Equal(t, int64(700_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(700_000), repo.Balance(ledger.CodeDeferredRevenue))

	_, found := repo.EntryByReference(sales.Module, sale.ID)
	require.True(t, found, "original sale entry stays")
	_, found = repo.EntryByReference(sales.CancelModule, sub.ID)
	require.True(t, found, "cancellation posts its own entry")

	_, err = service.Cancel(context.Background(), sub.ID, 0)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRenewPostsNewSaleAndAdvancesDate(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)
	cash := repo.AccountByCode(ledger.CodeCash)

	first, err := service.Create(context.Background(), sales.CreateInput{
		Stream:           sales.StreamSubscription,
		Amount:           1_200_000,
		CustomerID:       &customerID,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	before, err := service.GetSubscription(context.Background(), *first.SubscriptionID)
	require.NoError(t, err)

	renewal, err := service.Renew(context.Background(), before.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, renewal.ID)
	require.Equal(t, before.ID, *renewal.SubscriptionID)

	after, err := service.GetSubscription(context.Background(), before.ID)
	require.NoError(t, err)
	require.Equal(t, before.RenewsAt.AddDate(0, 1, 0), after.RenewsAt)

	require.Equal(t, int64(2_400_000), repo.Balance(ledger.CodeDeferredRevenue))
	_, found := repo.EntryByReference(sales.Module, renewal.ID)
	require.True(t, found)
}

func TestAssessmentSale(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)
	cash := repo.AccountByCode(ledger.CodeCash)

	_, err := service.Create(context.Background(), sales.CreateInput{
		Stream:           sales.StreamAssessment,
		Amount:           800_000,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	require.Equal(t, int64(800_000), repo.Balance(ledger.CodeCash))
	require.Equal(t, int64(800_000), repo.Balance(ledger.CodeAssessmentRevenue))
}

func TestRenewRequiresActiveSubscription(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	customerID := uuid.New()
	repo.AddParty(ledger.KindCustomer, customerID, 0)
	cash := repo.AccountByCode(ledger.CodeCash)

	sale, err := service.Create(context.Background(), sales.CreateInput{
		Stream:           sales.StreamSubscription,
		Amount:           1_200_000,
		CustomerID:       &customerID,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	_, err = service.Cancel(context.Background(), *sale.SubscriptionID, 0)
	require.NoError(t, err)
	_, err = service.Renew(context.Background(), *sale.SubscriptionID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

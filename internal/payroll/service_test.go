package payroll_test

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
	"github.com/hessekhub/hessekhub-finance/internal/payroll"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

type memoryRepo struct {
	*ledgertest.Store
	payments map[uuid.UUID]payroll.Payment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		Store:    ledgertest.NewStore(ledger.DefaultChart()),
		payments: make(map[uuid.UUID]payroll.Payment),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, payroll.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) CreatePayment(ctx context.Context, p payroll.Payment) (payroll.Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.payments[p.ID] = p
	return p, nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, id uuid.UUID) (payroll.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return payroll.Payment{}, payroll.ErrPaymentNotFound
	}
	return p, nil
}

func (r *memoryRepo) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.payments[id]; !ok {
		return payroll.ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memoryRepo) ListPayments(ctx context.Context) ([]payroll.Payment, error) {
	var out []payroll.Payment
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, nil
}

func newService(repo *memoryRepo) *payroll.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return payroll.NewService(repo,
		ledger.NewPoster(logger),
		ledger.NewReverser(logger),
		ledger.NewResolver(logger),
		logger)
}

func TestPayDebitsSalaryExpense(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 30_000_000)
	service := newService(repo)

	cash := repo.AccountByCode(ledger.CodeCash)
	employeeID := uuid.New()
	payment, err := service.Pay(context.Background(), payroll.PayInput{
		EmployeeID:       &employeeID,
		Amount:           12_000_000,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	require.Equal(t, int64(12_000_000), repo.Balance(ledger.CodeSalaryExpense))
	require.Equal(t, int64(18_000_000), repo.Balance(ledger.CodeCash))

	entry, found := repo.EntryByReference(payroll.Module, payment.ID)
	require.True(t, found)
	require.Len(t, entry.Lines, 2)
}

func TestPayFallsBackToBank(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeBank, 30_000_000)
	service := newService(repo)

	_, err := service.Pay(context.Background(), payroll.PayInput{Amount: 5_000_000})
	require.NoError(t, err)

	require.Equal(t, int64(25_000_000), repo.Balance(ledger.CodeBank))
	require.Equal(t, int64(5_000_000), repo.Balance(ledger.CodeSalaryExpense))
}

func TestPayRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryRepo()
	service := newService(repo)

	_, err := service.Pay(context.Background(), payroll.PayInput{Amount: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.Entries)
}

func TestDeleteRestoresBalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.SetBalance(ledger.CodeCash, 30_000_000)
	service := newService(repo)

	cash := repo.AccountByCode(ledger.CodeCash)
	before := repo.Balances()
	payment, err := service.Pay(context.Background(), payroll.PayInput{
		Amount:           12_000_000,
		PaymentAccountID: &cash.ID,
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), payment.ID))

	require.Equal(t, before, repo.Balances())
	require.Empty(t, repo.Entries)
	_, err = service.Get(context.Background(), payment.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hessekhub/hessekhub-finance/internal/sales"
)

// TaskSubscriptionRenewalScan renews every active subscription whose renewal
// date has arrived.
const TaskSubscriptionRenewalScan = "subscriptions:renewal-scan"

// NewRenewalScanTask constructs the scan task. The scan carries no payload;
// eligibility is decided against the wall clock at run time, so a scan that
// runs late still picks up everything that came due in the meantime.
func NewRenewalScanTask() *asynq.Task {
	return asynq.NewTask(TaskSubscriptionRenewalScan, nil)
}

// SubscriptionRenewer is the slice of the sales service the scan drives.
type SubscriptionRenewer interface {
	ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]sales.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID) (sales.Sale, error)
}

// RenewalScanJob posts renewal sales for due subscriptions.
type RenewalScanJob struct {
	service SubscriptionRenewer
	logger  *slog.Logger
	clock   func() time.Time
}

// NewRenewalScanJob initialises the renewal scan handler.
func NewRenewalScanJob(service SubscriptionRenewer, logger *slog.Logger) *RenewalScanJob {
	return &RenewalScanJob{
		service: service,
		logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one scan. A subscription is renewed only once its RenewsAt
// has passed; it is never billed ahead of its renewal date. A failing
// subscription is logged and skipped so one bad record cannot stall the rest
// of the batch.
func (j *RenewalScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("renewal scan: handler not configured")
	}
	now := j.clock()

	due, err := j.service.ListDueSubscriptions(ctx, now)
	if err != nil {
		j.logger.Error("list due subscriptions", slog.Any("error", err))
		return err
	}
	j.logger.Info("starting renewal scan", slog.Int("due", len(due)))

	var renewed, failed int
	for _, sub := range due {
		if _, err := j.service.Renew(ctx, sub.ID); err != nil {
			failed++
			j.logger.Warn("subscription renewal failed",
				slog.String("subscription_id", sub.ID.String()),
				slog.Any("error", err))
			continue
		}
		renewed++
	}
	j.logger.Info("renewal scan finished", slog.Int("renewed", renewed), slog.Int("failed", failed))
	return nil
}

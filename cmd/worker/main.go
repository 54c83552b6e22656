package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/hessekhub/hessekhub-finance/internal/app"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/sales"
	"github.com/hessekhub/hessekhub-finance/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	poster := ledger.NewPoster(logger)
	reverser := ledger.NewReverser(logger)
	resolver := ledger.NewResolver(logger)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, poster, reverser, resolver, logger)

	renewalJob := jobs.NewRenewalScanJob(salesService, logger)
	renewalTask := jobs.NewRenewalScanTask()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSubscriptionRenewalScan, Handler: renewalJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RenewalCronSpec, Task: renewalTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}

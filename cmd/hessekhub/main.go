package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hessekhub/hessekhub-finance/internal/app"
	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/parties"
	"github.com/hessekhub/hessekhub-finance/internal/payroll"
	"github.com/hessekhub/hessekhub-finance/internal/platform/cache"
	"github.com/hessekhub/hessekhub-finance/internal/platform/db"
	"github.com/hessekhub/hessekhub-finance/internal/purchases"
	"github.com/hessekhub/hessekhub-finance/internal/reports"
	"github.com/hessekhub/hessekhub-finance/internal/sales"
	"github.com/hessekhub/hessekhub-finance/internal/treasury"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	// A missing cache degrades report reads to direct queries, so startup
	// proceeds without Redis.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("connect redis", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	poster := ledger.NewPoster(logger)
	reverser := ledger.NewReverser(logger)
	resolver := ledger.NewResolver(logger)

	ledgerRepo := ledger.NewRepository(dbpool)
	accountsHandler := ledger.NewHandler(logger, ledgerRepo)

	partiesRepo := parties.NewRepository(dbpool)
	partiesService := parties.NewService(partiesRepo)
	partiesHandler := parties.NewHandler(logger, partiesService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, logger, inventory.Config{AllowNegativeStock: cfg.AllowNegativeStock})
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	purchasesRepo := purchases.NewRepository(dbpool)
	purchasesService := purchases.NewService(purchasesRepo, poster, reverser, resolver, logger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, poster, reverser, resolver, logger)
	salesHandler := sales.NewHandler(logger, salesService)

	payrollRepo := payroll.NewRepository(dbpool)
	payrollService := payroll.NewService(payrollRepo, poster, reverser, resolver, logger)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	treasuryRepo := treasury.NewRepository(dbpool)
	treasuryService := treasury.NewService(treasuryRepo, poster, reverser, resolver, logger)
	treasuryHandler := treasury.NewHandler(logger, treasuryService)

	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(ledgerRepo, reportsRepo, reportsCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accountsHandler,
		PartiesHandler:   partiesHandler,
		PurchasesHandler: purchasesHandler,
		InventoryHandler: inventoryHandler,
		SalesHandler:     salesHandler,
		PayrollHandler:   payrollHandler,
		TreasuryHandler:  treasuryHandler,
		ReportsHandler:   reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

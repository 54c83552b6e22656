package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hessekhub/hessekhub-finance/internal/inventory"
	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/parties"
	"github.com/hessekhub/hessekhub-finance/internal/payroll"
	"github.com/hessekhub/hessekhub-finance/internal/purchases"
	"github.com/hessekhub/hessekhub-finance/internal/reports"
	"github.com/hessekhub/hessekhub-finance/internal/sales"
	"github.com/hessekhub/hessekhub-finance/internal/treasury"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *ledger.Handler
	PartiesHandler   *parties.Handler
	PurchasesHandler *purchases.Handler
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	PayrollHandler   *payroll.Handler
	TreasuryHandler  *treasury.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/accounts", params.AccountsHandler.MountRoutes)
		api.Route("/parties", params.PartiesHandler.MountRoutes)
		api.Route("/purchases", params.PurchasesHandler.MountRoutes)
		api.Route("/inventory", params.InventoryHandler.MountRoutes)
		api.Route("/sales", params.SalesHandler.MountRoutes)
		api.Route("/subscriptions", params.SalesHandler.MountSubscriptionRoutes)
		api.Route("/payroll", params.PayrollHandler.MountRoutes)
		api.Route("/transfers", params.TreasuryHandler.MountTransferRoutes)
		api.Route("/loans", params.TreasuryHandler.MountLoanRoutes)
		api.Route("/checks", params.TreasuryHandler.MountCheckRoutes)
		api.Route("/ledger", params.ReportsHandler.MountJournalRoutes)
		api.Route("/reports", params.ReportsHandler.MountReportRoutes)
	})

	return r
}

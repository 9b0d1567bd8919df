package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/venue-erp/venue-erp/internal/bulkpay"
	"github.com/venue-erp/venue-erp/internal/halls"
	"github.com/venue-erp/venue-erp/internal/ledger/accounts"
	"github.com/venue-erp/venue-erp/internal/ledger/balances"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/currency"
	"github.com/venue-erp/venue-erp/internal/pos"
	"github.com/venue-erp/venue-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	BookingsHandler *bookings.Handler
	BalancesHandler *balances.Handler
	CurrencyHandler *currency.Handler
	POSHandler      *pos.Handler
	HallsHandler    *halls.Handler
	BulkPayHandler  *bulkpay.Handler
	JobsHandler     *jobs.Handler
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

	r.Route("/accounts", params.AccountsHandler.MountRoutes)
	r.Route("/bookings", params.BookingsHandler.MountRoutes)
	r.Route("/reports", params.BalancesHandler.MountRoutes)
	r.Route("/currency", params.CurrencyHandler.MountRoutes)
	r.Route("/pos", params.POSHandler.MountRoutes)
	r.Route("/halls", params.HallsHandler.MountRoutes)
	r.Route("/bulk-payments", params.BulkPayHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bistro-suite/bistro/internal/auth"
	"github.com/bistro-suite/bistro/internal/billing"
	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/dre"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/observability"
	"github.com/bistro-suite/bistro/internal/settings"
	"github.com/bistro-suite/bistro/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	CategoriesHandler *categories.Handler
	LedgerHandler     *ledger.Handler
	DREHandler        *dre.Handler
	BillingHandler    *billing.Handler
	SettingsHandler   *settings.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthHandler.RequireToken)

		r.Route("/categories", params.CategoriesHandler.MountRoutes)
		r.Route("/ledger", params.LedgerHandler.MountRoutes)
		r.Route("/dre", params.DREHandler.MountRoutes)
		r.Route("/tables", params.BillingHandler.MountTableRoutes)
		r.Route("/settlements", params.BillingHandler.MountSettlementRoutes)
		r.Route("/settings", params.SettingsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

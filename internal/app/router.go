package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/caudal-erp/caudal-erp/internal/accounting/accounts"
	"github.com/caudal-erp/caudal-erp/internal/accounting/journals"
	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	"github.com/caudal-erp/caudal-erp/internal/expenses"
	"github.com/caudal-erp/caudal-erp/internal/observability"
	"github.com/caudal-erp/caudal-erp/internal/pos"
	"github.com/caudal-erp/caudal-erp/internal/withholding"
	"github.com/caudal-erp/caudal-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AccountsHandler    *accounts.Handler
	PeriodsHandler     *periods.Handler
	JournalsHandler    *journals.Handler
	ExpensesHandler    *expenses.Handler
	POSHandler         *pos.Handler
	WithholdingHandler *withholding.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
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
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		if params.AccountsHandler != nil {
			r.Route("/accounting/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.PeriodsHandler != nil {
			r.Route("/accounting/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.JournalsHandler != nil {
			r.Route("/accounting/journals", params.JournalsHandler.MountRoutes)
		}
		if params.ExpensesHandler != nil {
			r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
		if params.POSHandler != nil {
			r.Route("/pos", params.POSHandler.MountRoutes)
		}
		if params.WithholdingHandler != nil {
			r.Route("/withholding/certificates", params.WithholdingHandler.MountRoutes)
		}
	})

	return r
}

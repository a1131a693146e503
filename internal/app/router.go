package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/audit"
	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/payments"
	"github.com/meridian-fin/meridian/internal/reports"
	"github.com/meridian-fin/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	ContractsHandler    *contracts.Handler
	AmortizationHandler *amortization.Handler
	PaymentsHandler     *payments.Handler
	JournalsHandler     *journals.Handler
	ReportsHandler      *reports.Handler
	AuditHandler        *audit.Handler
	JobsHandler         *jobs.Handler
	Pool                *pgxpool.Pool
}

// NewRouter constructs the chi.Router with Meridian defaults.
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
		params.ContractsHandler.MountRoutes(api)
		params.AmortizationHandler.MountRoutes(api)
		params.PaymentsHandler.MountRoutes(api)
		params.JournalsHandler.MountRoutes(api)
		params.ReportsHandler.MountRoutes(api)
		params.AuditHandler.MountRoutes(api)
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(api)
		}
	})

	return r
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/saral-erp/saral-erp/internal/backup"
	"github.com/saral-erp/saral-erp/internal/masterdata/items"
	"github.com/saral-erp/saral-erp/internal/observability"
	"github.com/saral-erp/saral-erp/internal/sales"
	"github.com/saral-erp/saral-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	SalesHandler  *sales.Handler
	ItemsHandler  *items.Handler
	BackupHandler *backup.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with Saral defaults. Everything under
// /api/v1 requires the caller identity headers; health and metrics stay open.
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

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(params.Logger))

		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(r)
		}
		if params.ItemsHandler != nil {
			params.ItemsHandler.MountRoutes(r)
		}
		if params.BackupHandler != nil {
			params.BackupHandler.MountRoutes(r)
		}
	})

	return r
}

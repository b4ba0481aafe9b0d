package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kirana-pos/kirana/internal/auth"
	"github.com/kirana-pos/kirana/internal/catalog"
	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/observability"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	TokenStore     *auth.TokenStore
	CatalogHandler *catalog.Handler
	LedgerHandler  *ledger.Handler
	RefdataHandler *refdata.Handler
	JobsHandler    *jobs.Handler
	Metrics        *observability.Metrics
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

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(params.TokenStore, params.Logger))
		params.CatalogHandler.MountRoutes(r)
		r.Route("/stock", params.LedgerHandler.MountRoutes)
		r.Route("/meta", params.RefdataHandler.MountRoutes)
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	})

	return r
}

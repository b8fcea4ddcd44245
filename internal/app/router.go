package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	expensehandler "github.com/FACorreiaa/expense-importer/internal/domain/expense/handler"
	importhandler "github.com/FACorreiaa/expense-importer/internal/domain/import/handler"
	"github.com/FACorreiaa/expense-importer/pkg/api"
	"github.com/FACorreiaa/expense-importer/pkg/config"
	"github.com/FACorreiaa/expense-importer/pkg/metrics"
)

// NewRouter builds the HTTP API. A nil m disables /metrics.
func NewRouter(cfg config.ServerConfig, imports *importhandler.ImportHandler, expenses *expensehandler.ExpenseHandler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.CORS(cfg.AllowedOrigins))
	if m != nil {
		r.Use(api.Instrument(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(api.RateLimit(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst))
		r.Use(middleware.Timeout(60 * time.Second))

		imports.Routes(r)
		expenses.Routes(r)
	})

	return r
}

// Router builds the HTTP API from the initialized dependencies.
func (d *Dependencies) Router() http.Handler {
	return NewRouter(d.Config.Server, d.ImportHandler, d.ExpenseHandler, d.Metrics)
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vnmchuo/cloudsaver/internal/analysis"
	"github.com/vnmchuo/cloudsaver/internal/tenant"
)

// newRouter exposes /healthz publicly and /api/cost-analysis behind the
// tenant middleware. Nothing else is routed.
func newRouter(handler *analysis.Handler, tenantMiddleware tenant.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"cloudsaver"}`))
	})

	// Tenant-scoped routes
	r.Group(func(r chi.Router) {
		r.Use(tenantMiddleware)
		r.Get("/api/cost-analysis", handler.HandleCostAnalysis)
	})

	return r
}

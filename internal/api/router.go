package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
	"github.com/skipulag/vegvisir/internal/store"
)

// SimulationDefaults carries the server-side bounds and fallbacks applied to
// simulation requests.
type SimulationDefaults struct {
	DefaultTrials int
	MaxTrials     int
	DefaultAlpha  float64
	Workers       int
	BatchSize     int
}

func NewRouter(h *engine.Holder, s store.Store, ev events.Client, sim SimulationDefaults, catalogPath, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	cat := NewCatalogHandler(h)
	rank := NewRankHandler(h, s, ev)
	simulate := NewSimulateHandler(h, s, ev, sim)
	runs := NewRunsHandler(s)
	admin := NewAdminHandler(h, ev, catalogPath, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/scenarios", cat.Scenarios)
		r.Get("/scenarios/{id}/risks", cat.ScenarioRisks)
		r.Get("/goals", cat.Goals)
		r.Get("/profiles", cat.Profiles)
		r.Get("/scores", cat.Scores)

		r.Post("/rank", rank.Rank)
		r.Post("/simulate", simulate.Simulate)

		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/admin/reload", admin.Reload)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

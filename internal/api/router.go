package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
)

func NewRouter(b *broker.Broker, apiToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	matchups := NewMatchupsHandler(b, logger)
	rankings := NewRankingsHandler(b, logger)
	trades := NewTradesHandler(b, logger)
	leagues := NewLeaguesHandler(b, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(apiToken))

		r.Post("/matchups", matchups.Create)
		r.Get("/matchups", matchups.List)
		r.Get("/matchups/{id}", matchups.Get)
		r.Get("/matchups/{id}/events", matchups.Events)
		r.Get("/matchups/{id}/trades", trades.Find)

		r.Route("/matchups/{id}/{side}", func(r chi.Router) {
			r.Post("/seed", rankings.Seed)
			r.Post("/candidates", rankings.Candidates)
			r.Post("/rankings", rankings.Rerank)
			r.Post("/proposals", rankings.Propose)
			r.Post("/scores", rankings.Score)
		})

		r.Get("/leagues/{league_id}/owners", leagues.Owners)
		r.Post("/leagues/{league_id}/matchups", leagues.CreateMatchup)
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

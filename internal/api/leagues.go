package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
)

type LeaguesHandler struct {
	broker *broker.Broker
	logger *slog.Logger
}

func NewLeaguesHandler(b *broker.Broker, logger *slog.Logger) *LeaguesHandler {
	return &LeaguesHandler{broker: b, logger: logger}
}

func (h *LeaguesHandler) Owners(w http.ResponseWriter, r *http.Request) {
	res, err := h.broker.LeagueOwners(r.Context(), chi.URLParam(r, "league_id"), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LeaguesHandler) CreateMatchup(w http.ResponseWriter, r *http.Request) {
	var req broker.LeagueMatchupRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	m, err := h.broker.CreateLeagueMatchup(r.Context(), chi.URLParam(r, "league_id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, MatchupResponse{ID: m.Key.String(), Matchup: m})
}

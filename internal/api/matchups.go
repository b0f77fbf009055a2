package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

type MatchupsHandler struct {
	broker *broker.Broker
	logger *slog.Logger
}

func NewMatchupsHandler(b *broker.Broker, logger *slog.Logger) *MatchupsHandler {
	return &MatchupsHandler{broker: b, logger: logger}
}

type CreateMatchupRequest struct {
	UserID     string               `json:"user_id"`
	Username   string               `json:"username"`
	LeagueID   string               `json:"league_id"`
	LeagueName string               `json:"league_name"`
	LMUserID   string               `json:"lm_user_id"`
	LMUsername string               `json:"lm_username"`
	Players    []store.RosterPlayer `json:"players"`
}

type MatchupResponse struct {
	ID      string         `json:"id"`
	Matchup *store.Matchup `json:"matchup"`
}

func (h *MatchupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchupRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	m := &store.Matchup{
		Key:        store.MatchupKey{UserID: req.UserID, LeagueID: req.LeagueID, LMUserID: req.LMUserID},
		Username:   req.Username,
		LeagueName: req.LeagueName,
		LMUsername: req.LMUsername,
		Players:    req.Players,
	}
	if err := h.broker.SubmitMatchup(r.Context(), m, "api"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, MatchupResponse{ID: m.Key.String(), Matchup: m})
}

func (h *MatchupsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.MatchupFilter{
		UserID:   r.URL.Query().Get("user_id"),
		LeagueID: r.URL.Query().Get("league_id"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}

	matchups, err := h.broker.ListMatchups(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if matchups == nil {
		matchups = []*store.Matchup{}
	}
	writeJSON(w, http.StatusOK, matchups)
}

func (h *MatchupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := matchupKey(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	m, err := h.broker.GetMatchup(r.Context(), key)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchupResponse{ID: key.String(), Matchup: m})
}

func (h *MatchupsHandler) Events(w http.ResponseWriter, r *http.Request) {
	key, err := matchupKey(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	events, err := h.broker.Events(r.Context(), key)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if events == nil {
		events = []*store.MatchupEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

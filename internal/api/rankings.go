package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
	"github.com/MikeSquared-Agency/Barter/internal/candidates"
	"github.com/MikeSquared-Agency/Barter/internal/proposal"
	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

// RankingsHandler serves one side's ranking workflow under
// /matchups/{id}/{side}.
type RankingsHandler struct {
	broker *broker.Broker
	logger *slog.Logger
}

func NewRankingsHandler(b *broker.Broker, logger *slog.Logger) *RankingsHandler {
	return &RankingsHandler{broker: b, logger: logger}
}

type SeedRequest struct {
	Ranking []rating.RankedItem `json:"ranking"`
}

type CandidatesRequest struct {
	Ranking []candidates.ScoredItem `json:"ranking"`
}

type ProposalsRequest struct {
	Count int `json:"count"`
}

type ScoresRequest struct {
	Comparisons []proposal.GroupComparison `json:"comparisons"`
}

func (h *RankingsHandler) Seed(w http.ResponseWriter, r *http.Request) {
	key, side, err := matchupSide(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req SeedRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.broker.Seed(r.Context(), key, side, req.Ranking)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RankingsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	key, side, err := matchupSide(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req CandidatesRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}

	cands, err := h.broker.Candidates(r.Context(), key, side, req.Ranking, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if cands == nil {
		cands = []candidates.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"two_for_ones": cands})
}

func (h *RankingsHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	key, side, err := matchupSide(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req broker.Comparisons
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.broker.Rerank(r.Context(), key, side, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RankingsHandler) Propose(w http.ResponseWriter, r *http.Request) {
	key, side, err := matchupSide(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req ProposalsRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	comparisons, err := h.broker.Propose(r.Context(), key, side, req.Count)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comparisons": comparisons})
}

func (h *RankingsHandler) Score(w http.ResponseWriter, r *http.Request) {
	key, side, err := matchupSide(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req ScoresRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	scores, err := h.broker.Score(r.Context(), key, side, req.Comparisons)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rankings": scores})
}

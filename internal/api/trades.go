package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

type TradesHandler struct {
	broker *broker.Broker
	logger *slog.Logger
}

func NewTradesHandler(b *broker.Broker, logger *slog.Logger) *TradesHandler {
	return &TradesHandler{broker: b, logger: logger}
}

// Find serves GET /matchups/{id}/trades?mode=fair|mutual&margin=&view=u|l&limit=.
func (h *TradesHandler) Find(w http.ResponseWriter, r *http.Request) {
	key, err := matchupKey(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	query := broker.TradeQuery{
		Mode: broker.TradeMode(q.Get("mode")),
		View: store.Side(q.Get("view")),
	}
	if v := q.Get("margin"); v != "" {
		margin, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(margin) || math.IsInf(margin, 0) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid margin"})
			return
		}
		query.Margin = &margin
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		query.Limit = n
	}

	res, err := h.broker.FindTrades(r.Context(), key, query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Barter/internal/broker"
	"github.com/MikeSquared-Agency/Barter/internal/candidates"
	"github.com/MikeSquared-Agency/Barter/internal/exchange"
	"github.com/MikeSquared-Agency/Barter/internal/proposal"
	"github.com/MikeSquared-Agency/Barter/internal/rating"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ce *proposal.CollaboratorError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "raw": ce.Raw})
	case errors.Is(err, proposal.ErrCollaborator), errors.Is(err, broker.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.Is(err, broker.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, exchange.ErrResourceExhausted):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, broker.ErrInvalidInput),
		errors.Is(err, rating.ErrInvalidInput),
		errors.Is(err, candidates.ErrInvalidInput),
		errors.Is(err, exchange.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, store.ErrInvalidSide):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	return err
}

func matchupKey(r *http.Request) (store.MatchupKey, error) {
	return store.ParseMatchupKey(chi.URLParam(r, "id"))
}

func matchupSide(r *http.Request) (store.MatchupKey, store.Side, error) {
	key, err := matchupKey(r)
	if err != nil {
		return store.MatchupKey{}, "", err
	}
	side, err := store.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		return store.MatchupKey{}, "", err
	}
	return key, side, nil
}

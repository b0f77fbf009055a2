// Package broker runs the matchup workflow: it loads and saves matchups,
// drives the rating, candidate and exchange algorithms, calls the LLM and
// league collaborators, and announces every change on hermes.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/Barter/internal/config"
	"github.com/MikeSquared-Agency/Barter/internal/exchange"
	"github.com/MikeSquared-Agency/Barter/internal/hermes"
	"github.com/MikeSquared-Agency/Barter/internal/proposal"
	"github.com/MikeSquared-Agency/Barter/internal/rating"
	"github.com/MikeSquared-Agency/Barter/internal/sleeper"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

var (
	ErrInvalidInput = errors.New("invalid request")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("league source unavailable")
)

const maxListLimit = 200

type Broker struct {
	store    store.Store
	hermes   hermes.Client
	proposer proposal.Proposer
	scorer   proposal.Scorer
	sleeper  sleeper.Client
	searcher *exchange.Searcher
	rule     rating.UpdateRule
	cfg      *config.Config
	logger   *slog.Logger
}

// New builds a Broker. An empty or unknown cfg.Solver.Rule solves with the
// legacy update.
func New(s store.Store, h hermes.Client, p proposal.Proposer, sc proposal.Scorer, sl sleeper.Client, cfg *config.Config, logger *slog.Logger) *Broker {
	rule := rating.LegacyUpdate
	if cfg.Solver.Rule != "" {
		parsed, err := rating.ParseRule(cfg.Solver.Rule)
		if err != nil {
			logger.Warn("unknown solver rule, using legacy", "rule", cfg.Solver.Rule)
		} else {
			rule = parsed
		}
	}

	return &Broker{
		store:    s,
		hermes:   h,
		proposer: p,
		scorer:   sc,
		sleeper:  sl,
		searcher: exchange.NewSearcher(exchange.Limits{
			MaxRosterSize: cfg.Exchange.MaxRosterSize,
			MaxResults:    cfg.Exchange.MaxResults,
			Workers:       cfg.Exchange.Workers,
		}),
		rule:   rule,
		cfg:    cfg,
		logger: logger,
	}
}

// SetupSubscriptions lets other services submit matchups over hermes.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}

	err := b.hermes.Subscribe(hermes.SubjectMatchupRequest, func(_ string, data []byte) {
		var req hermes.MatchupRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			b.logger.Warn("invalid matchup request event", "error", err)
			return
		}
		m := &store.Matchup{
			Key:        store.MatchupKey{UserID: req.UserID, LeagueID: req.LeagueID, LMUserID: req.LMUserID},
			Username:   req.Username,
			LeagueName: req.LeagueName,
			LMUsername: req.LMUsername,
		}
		for _, p := range req.Players {
			m.Players = append(m.Players, store.RosterPlayer{
				PlayerID: p.PlayerID,
				Name:     p.Name,
				Position: p.Position,
				Team:     p.Team,
				Manager:  store.Side(p.Manager),
			})
		}
		if err := b.SubmitMatchup(context.Background(), m, "hermes"); err != nil {
			b.logger.Error("failed to create matchup from hermes request", "error", err)
		}
	})
	if err != nil {
		b.logger.Warn("failed to subscribe to matchup requests", "error", err)
	}
}

// SubmitMatchup creates or replaces a matchup. Replacing clears both sides'
// rankings.
func (b *Broker) SubmitMatchup(ctx context.Context, m *store.Matchup, source string) error {
	if err := b.validateMatchup(m); err != nil {
		return err
	}
	if err := b.store.UpsertMatchup(ctx, m); err != nil {
		return fmt.Errorf("upsert matchup: %w", err)
	}

	key := m.Key.String()
	b.recordEvent(ctx, m.Key, "created", "", map[string]interface{}{"players": len(m.Players), "source": source})
	b.publish(hermes.SubjectMatchupCreated(key), hermes.MatchupCreatedEvent{Key: key, Players: len(m.Players), Source: source})
	b.logger.Info("matchup submitted", "matchup", key, "players", len(m.Players), "source", source)
	return nil
}

// GetMatchup returns ErrNotFound for unknown keys.
func (b *Broker) GetMatchup(ctx context.Context, key store.MatchupKey) (*store.Matchup, error) {
	m, err := b.store.GetMatchup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get matchup: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: matchup %s", ErrNotFound, key)
	}
	return m, nil
}

func (b *Broker) ListMatchups(ctx context.Context, filter store.MatchupFilter) ([]*store.Matchup, error) {
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return b.store.ListMatchups(ctx, filter)
}

func (b *Broker) Events(ctx context.Context, key store.MatchupKey) ([]*store.MatchupEvent, error) {
	return b.store.GetMatchupEvents(ctx, key)
}

func (b *Broker) validateMatchup(m *store.Matchup) error {
	if err := m.Key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(m.Players) < 2 {
		return fmt.Errorf("%w: a matchup needs at least two players", ErrInvalidInput)
	}
	// Each side ranks every selected player, so the candidate generator's
	// limit bounds the whole selection.
	if limit := b.cfg.Candidates.MaxItems; limit > 0 && len(m.Players) > limit {
		return fmt.Errorf("%w: %d players selected, at most %d allowed", ErrInvalidInput, len(m.Players), limit)
	}
	seen := make(map[string]struct{}, len(m.Players))
	for _, p := range m.Players {
		if p.PlayerID == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidInput)
		}
		if _, dup := seen[p.PlayerID]; dup {
			return fmt.Errorf("%w: player %s selected twice", ErrInvalidInput, p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
		if _, err := store.ParseSide(string(p.Manager)); err != nil {
			return fmt.Errorf("%w: player %s: %v", ErrInvalidInput, p.PlayerID, err)
		}
	}
	return nil
}

func (b *Broker) publish(subject string, data interface{}) {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Publish(subject, data); err != nil {
		b.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (b *Broker) recordEvent(ctx context.Context, key store.MatchupKey, event string, side store.Side, payload map[string]interface{}) {
	e := &store.MatchupEvent{MatchupKey: key.String(), Event: event, Side: side, Payload: payload}
	if err := b.store.CreateMatchupEvent(ctx, e); err != nil {
		b.logger.Warn("failed to record matchup event", "matchup", e.MatchupKey, "event", event, "error", err)
	}
}

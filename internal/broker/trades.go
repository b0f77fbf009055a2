package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MikeSquared-Agency/Barter/internal/exchange"
	"github.com/MikeSquared-Agency/Barter/internal/hermes"
	"github.com/MikeSquared-Agency/Barter/internal/metrics"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

type TradeMode string

const (
	TradeFair   TradeMode = "fair"
	TradeMutual TradeMode = "mutual"
)

// TradeQuery selects a trade search. Margin falls back to the configured
// default when nil. View picks whose scores value both rosters in fair mode.
type TradeQuery struct {
	Mode   TradeMode
	Margin *float64
	View   store.Side
	Limit  int
}

type TradeResult struct {
	Key        string          `json:"key"`
	Mode       TradeMode       `json:"mode"`
	View       store.Side      `json:"view,omitempty"`
	Margin     float64         `json:"margin,omitempty"`
	Total      int             `json:"total"`
	Trades     []exchange.Pair `json:"trades"`
	DurationMs int64           `json:"duration_ms"`
}

// FindTrades searches exchanges between the user's and the leaguemate's
// selected players using the saved scores. Side A of every pair is the user.
func (b *Broker) FindTrades(ctx context.Context, key store.MatchupKey, q TradeQuery) (*TradeResult, error) {
	m, err := b.GetMatchup(ctx, key)
	if err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = TradeFair
	}

	if d := b.cfg.ExchangeTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	res := &TradeResult{Key: m.Key.String(), Mode: q.Mode}
	start := time.Now()
	var pairs []exchange.Pair

	switch q.Mode {
	case TradeFair:
		if q.View == "" {
			q.View = store.SideUser
		}
		if _, err := store.ParseSide(string(q.View)); err != nil {
			return nil, fmt.Errorf("%w: view: %v", ErrInvalidInput, err)
		}
		margin := b.cfg.Exchange.DefaultMargin
		if q.Margin != nil {
			margin = *q.Margin
		}
		res.View, res.Margin = q.View, margin

		values, err := scoreMap(m, q.View)
		if err != nil {
			return nil, err
		}
		a := valuedItems(m.PlayersFor(store.SideUser), values)
		bItems := valuedItems(m.PlayersFor(store.SideLeaguemate), values)
		pairs, err = b.searcher.FindFair(ctx, a, bItems, margin)
		if err != nil {
			return nil, b.tradeError(string(q.Mode), start, err)
		}
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Diff < pairs[j].Diff })

	case TradeMutual:
		valA, err := scoreMap(m, store.SideUser)
		if err != nil {
			return nil, err
		}
		valB, err := scoreMap(m, store.SideLeaguemate)
		if err != nil {
			return nil, err
		}
		pairs, err = b.searcher.FindMutual(ctx,
			playerIDs(m.PlayersFor(store.SideUser)),
			playerIDs(m.PlayersFor(store.SideLeaguemate)),
			valA, valB)
		if err != nil {
			return nil, b.tradeError(string(q.Mode), start, err)
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].A.Gain()+pairs[i].B.Gain() > pairs[j].A.Gain()+pairs[j].B.Gain()
		})

	default:
		return nil, fmt.Errorf("%w: unknown trade mode %q", ErrInvalidInput, q.Mode)
	}

	metrics.ObserveExchange(string(q.Mode), start, len(pairs), false)
	if pairs == nil {
		pairs = []exchange.Pair{}
	}
	res.Total = len(pairs)
	if q.Limit > 0 && len(pairs) > q.Limit {
		pairs = pairs[:q.Limit]
	}
	res.Trades = pairs
	res.DurationMs = time.Since(start).Milliseconds()

	b.recordEvent(ctx, m.Key, "trades", "", map[string]interface{}{
		"mode": q.Mode, "margin": res.Margin, "count": res.Total, "duration_ms": res.DurationMs,
	})
	b.publish(hermes.SubjectMatchupTrades(res.Key), hermes.TradesFoundEvent{
		Key:        res.Key,
		Mode:       string(q.Mode),
		Margin:     res.Margin,
		Count:      res.Total,
		DurationMs: res.DurationMs,
	})
	b.logger.Info("trades found", "matchup", res.Key, "mode", q.Mode, "count", res.Total, "duration_ms", res.DurationMs)
	return res, nil
}

func (b *Broker) tradeError(mode string, start time.Time, err error) error {
	rejected := errors.Is(err, exchange.ErrResourceExhausted)
	metrics.ObserveExchange(mode, start, 0, rejected)
	if rejected {
		b.logger.Warn("trade search rejected", "mode", mode, "error", err)
	}
	return err
}

func scoreMap(m *store.Matchup, side store.Side) (map[string]float64, error) {
	ranks := m.Ranks(side)
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: side %s has no saved scores", ErrInvalidInput, side)
	}
	out := make(map[string]float64, len(ranks))
	for _, r := range ranks {
		out[r.Item] = float64(r.Score)
	}
	return out, nil
}

// valuedItems values players by scores; unscored players are worth zero.
func valuedItems(players []store.RosterPlayer, scores map[string]float64) []exchange.ValuedItem {
	out := make([]exchange.ValuedItem, len(players))
	for i, p := range players {
		out[i] = exchange.ValuedItem{Item: p.PlayerID, Value: scores[p.PlayerID]}
	}
	return out
}

func playerIDs(players []store.RosterPlayer) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.PlayerID
	}
	return out
}

// Package proposal asks a language model for informative group comparisons
// and for 0-100 scores consistent with a ranking. Model output is treated as
// untrusted: it is parsed strictly and any deviation is an error carrying
// the raw reply.
package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Barter/internal/metrics"
	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

const DefaultCount = 3

// GroupComparison is a proposed n-for-m comparison awaiting a human verdict.
type GroupComparison struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	GroupA []string         `json:"a"`
	GroupB []string         `json:"b"`
	Winner rating.GroupSide `json:"winner"`
}

// Outcome converts the comparison for the rating solver.
func (g GroupComparison) Outcome() rating.GroupOutcome {
	return rating.GroupOutcome{GroupA: g.GroupA, GroupB: g.GroupB, Winner: g.Winner}
}

type Proposer interface {
	Propose(ctx context.Context, ranking []rating.RankedItem, count int) ([]GroupComparison, error)
}

type Scorer interface {
	Score(ctx context.Context, ranking []rating.RankedItem, comparisons []GroupComparison) ([]rating.RankedScore, error)
}

// Client implements Proposer and Scorer on top of a Completer.
type Client struct {
	llm    Completer
	logger *slog.Logger
}

func NewClient(llm Completer, logger *slog.Logger) *Client {
	return &Client{llm: llm, logger: logger}
}

const proposeSystem = `You help a fantasy football manager refine a strict ranking of their players.
Suggest the comparisons whose answers would teach the most about the ranking: pick groups
of one to three players on each side (2-for-1, 2-for-2, 3-for-1 or 3-for-2) whose combined
values are closest. Skip any comparison whose answer already follows from the ranking by
transitivity. Use only player ids from the ranking and never put a player on both sides.
Reply with JSON only, in this shape:
{"comparisons": [{"id": "<uuid>", "a": ["<player_id>"], "b": ["<player_id>"], "winner": ""}]}`

const scoreSystem = `You assign fantasy football players a value from 0 to 100, higher is better.
Values must agree with the given ranking order and with every resolved comparison: when
"winner" is "a" the summed values of group a exceed group b, and the reverse for "b".
Score every ranked player exactly once.
Reply with JSON only, in this shape:
{"scores": [{"player_id": "<id>", "rank": <number>, "score": <number>}]}`

// Propose returns up to count comparisons, defaulting to DefaultCount.
// Winners are always cleared; a human decides them.
func (c *Client) Propose(ctx context.Context, ranking []rating.RankedItem, count int) ([]GroupComparison, error) {
	if len(ranking) == 0 {
		return nil, fmt.Errorf("%w: empty ranking", rating.ErrInvalidInput)
	}
	if count <= 0 {
		count = DefaultCount
	}
	rankingJSON, _ := json.MarshalIndent(ranking, "", "  ")
	user := fmt.Sprintf("Current ranking (1 = best):\n%s\n\nReturn at most %d comparisons.", rankingJSON, count)

	raw, err := c.complete(ctx, "propose", proposeSystem, user)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Comparisons []GroupComparison `json:"comparisons"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, c.fail(&CollaboratorError{Op: "propose", Raw: raw, Err: err})
	}
	if resp.Comparisons == nil {
		return nil, c.fail(malformed("propose", raw, "missing comparisons"))
	}

	known := itemSet(ranking)
	out := make([]GroupComparison, 0, min(count, len(resp.Comparisons)))
	for i, cmp := range resp.Comparisons {
		if len(out) == count {
			break
		}
		if err := checkGroups(cmp, known); err != nil {
			return nil, c.fail(malformed("propose", raw, "comparison %d: %v", i, err))
		}
		if cmp.ID == "" {
			cmp.ID = uuid.NewString()
		}
		cmp.Type = fmt.Sprintf("%d-for-%d", len(cmp.GroupA), len(cmp.GroupB))
		cmp.Winner = rating.SideUnset
		out = append(out, cmp)
	}
	return out, nil
}

// Score asks for a 0-100 value per ranked item. The returned ranks follow
// the scores, best first; ties keep the input ranking order.
func (c *Client) Score(ctx context.Context, ranking []rating.RankedItem, comparisons []GroupComparison) ([]rating.RankedScore, error) {
	if len(ranking) == 0 {
		return nil, fmt.Errorf("%w: empty ranking", rating.ErrInvalidInput)
	}
	rankingJSON, _ := json.MarshalIndent(ranking, "", "  ")
	comparisonsJSON, _ := json.MarshalIndent(comparisons, "", "  ")
	user := fmt.Sprintf("Ranking:\n%s\n\nComparison results:\n%s", rankingJSON, comparisonsJSON)

	raw, err := c.complete(ctx, "score", scoreSystem, user)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Scores []struct {
			Item  string   `json:"player_id"`
			Score *float64 `json:"score"`
		} `json:"scores"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, c.fail(&CollaboratorError{Op: "score", Raw: raw, Err: err})
	}

	order := make(map[string]int, len(ranking))
	for i, it := range ranking {
		order[it.Item] = i
	}
	scored := make(map[string]float64, len(resp.Scores))
	for _, s := range resp.Scores {
		if _, ok := order[s.Item]; !ok {
			return nil, c.fail(malformed("score", raw, "unknown player %q", s.Item))
		}
		if _, dup := scored[s.Item]; dup {
			return nil, c.fail(malformed("score", raw, "player %q scored twice", s.Item))
		}
		if s.Score == nil || math.IsNaN(*s.Score) || *s.Score < 0 || *s.Score > 100 {
			return nil, c.fail(malformed("score", raw, "player %q has no score in [0, 100]", s.Item))
		}
		scored[s.Item] = *s.Score
	}
	if len(scored) != len(ranking) {
		return nil, c.fail(malformed("score", raw, "scored %d of %d players", len(scored), len(ranking)))
	}

	out := make([]rating.RankedScore, 0, len(ranking))
	for _, it := range ranking {
		out = append(out, rating.RankedScore{Item: it.Item, Score: int(math.Round(scored[it.Item]))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if scored[out[i].Item] != scored[out[j].Item] {
			return scored[out[i].Item] > scored[out[j].Item]
		}
		return order[out[i].Item] < order[out[j].Item]
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	raw, err := c.llm.Complete(ctx, system, user)
	if err != nil {
		return "", c.fail(&CollaboratorError{Op: op, Err: err})
	}
	return raw, nil
}

func (c *Client) fail(err *CollaboratorError) error {
	metrics.LLMFailures.WithLabelValues(err.Op).Inc()
	c.logger.Warn("llm collaborator failed", "op", err.Op, "error", err.Err, "raw_bytes", len(err.Raw))
	return err
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decode(raw string, v interface{}) error {
	body := stripFences(raw)
	if body == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

func itemSet(ranking []rating.RankedItem) map[string]struct{} {
	set := make(map[string]struct{}, len(ranking))
	for _, it := range ranking {
		set[it.Item] = struct{}{}
	}
	return set
}

func checkGroups(cmp GroupComparison, known map[string]struct{}) error {
	if len(cmp.GroupA) == 0 || len(cmp.GroupB) == 0 {
		return fmt.Errorf("empty group")
	}
	seen := make(map[string]struct{}, len(cmp.GroupA)+len(cmp.GroupB))
	for _, it := range append(append([]string{}, cmp.GroupA...), cmp.GroupB...) {
		if _, ok := known[it]; !ok {
			return fmt.Errorf("unknown player %q", it)
		}
		if _, dup := seen[it]; dup {
			return fmt.Errorf("player %q appears twice", it)
		}
		seen[it] = struct{}{}
	}
	return nil
}

package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/Barter/internal/candidates"
	"github.com/MikeSquared-Agency/Barter/internal/hermes"
	"github.com/MikeSquared-Agency/Barter/internal/metrics"
	"github.com/MikeSquared-Agency/Barter/internal/proposal"
	"github.com/MikeSquared-Agency/Barter/internal/rating"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

// RankResult is one side's refreshed ranking.
type RankResult struct {
	Rankings   []rating.RankedScore     `json:"rankings"`
	Votes      []rating.PairwiseOutcome `json:"pairwise_votes"`
	Candidates []candidates.Candidate   `json:"two_for_ones,omitempty"`
	Iterations int                      `json:"iterations"`
	Converged  bool                     `json:"converged"`
}

// Comparisons are the human answers submitted to Rerank.
type Comparisons struct {
	TwoForOnes []rating.TwoForOne     `json:"two_for_ones"`
	Groups     []rating.GroupOutcome `json:"groups"`
}

// Seed turns a linear ranking of every matchup player into bootstrap votes,
// solves them and saves the result for side. The response carries the first
// round of 2-for-1 candidates.
func (b *Broker) Seed(ctx context.Context, key store.MatchupKey, side store.Side, ranking []rating.RankedItem) (*RankResult, error) {
	m, err := b.matchupForSide(ctx, key, side)
	if err != nil {
		return nil, err
	}
	if err := checkFullRanking(m, ranking); err != nil {
		return nil, err
	}

	votes := rating.SeedOutcomes(ranking)
	res, err := b.rank(ctx, m, side, votes, "seed")
	if err != nil {
		return nil, err
	}

	cands, err := b.generate(scoredItems(res.Rankings), 0)
	if err != nil {
		return nil, err
	}
	res.Candidates = cands
	return res, nil
}

// Rerank adds resolved comparisons to side's existing votes and re-solves.
func (b *Broker) Rerank(ctx context.Context, key store.MatchupKey, side store.Side, in Comparisons) (*RankResult, error) {
	m, err := b.matchupForSide(ctx, key, side)
	if err != nil {
		return nil, err
	}

	fromTwoForOnes, err := rating.ExpandTwoForOnes(in.TwoForOnes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fromGroups, err := rating.ExpandGroupOutcomes(in.Groups)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	added := append(fromTwoForOnes, fromGroups...)
	if len(added) == 0 {
		return nil, fmt.Errorf("%w: no resolved comparisons", ErrInvalidInput)
	}
	if err := checkKnown(m, outcomeItems(added)); err != nil {
		return nil, err
	}

	existing := m.Votes(side)
	votes := make([]rating.PairwiseOutcome, 0, len(existing)+len(added))
	votes = append(votes, existing...)
	votes = append(votes, added...)
	return b.rank(ctx, m, side, votes, "comparisons")
}

// Candidates returns the most informative 2-for-1 questions for ranking, or
// for side's saved ranking when ranking is empty.
func (b *Broker) Candidates(ctx context.Context, key store.MatchupKey, side store.Side, ranking []candidates.ScoredItem, limit int) ([]candidates.Candidate, error) {
	m, err := b.matchupForSide(ctx, key, side)
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		saved := m.Ranks(side)
		if len(saved) == 0 {
			return nil, fmt.Errorf("%w: side %s has no saved ranking", ErrInvalidInput, side)
		}
		ranking = scoredItems(saved)
	}
	items := make([]string, len(ranking))
	for i, it := range ranking {
		items[i] = it.Item
	}
	if err := checkKnown(m, items); err != nil {
		return nil, err
	}
	return b.generate(ranking, limit)
}

// Propose asks the LLM for group comparisons over side's saved ranking.
func (b *Broker) Propose(ctx context.Context, key store.MatchupKey, side store.Side, count int) ([]proposal.GroupComparison, error) {
	m, err := b.matchupForSide(ctx, key, side)
	if err != nil {
		return nil, err
	}
	ranking, err := savedRanking(m, side)
	if err != nil {
		return nil, err
	}

	ctx, cancel := b.llmContext(ctx)
	defer cancel()
	return b.proposer.Propose(ctx, ranking, count)
}

// Score asks the LLM for 0-100 values consistent with side's saved ranking
// and the resolved comparisons, then saves them as side's ranking. Votes are
// kept.
func (b *Broker) Score(ctx context.Context, key store.MatchupKey, side store.Side, comparisons []proposal.GroupComparison) ([]rating.RankedScore, error) {
	m, err := b.matchupForSide(ctx, key, side)
	if err != nil {
		return nil, err
	}
	ranking, err := savedRanking(m, side)
	if err != nil {
		return nil, err
	}
	for _, c := range comparisons {
		if err := checkKnown(m, append(append([]string{}, c.GroupA...), c.GroupB...)); err != nil {
			return nil, err
		}
	}

	llmCtx, cancel := b.llmContext(ctx)
	defer cancel()
	scores, err := b.scorer.Score(llmCtx, ranking, comparisons)
	if err != nil {
		return nil, err
	}

	if err := b.saveRanks(ctx, m.Key, side, scores, m.Votes(side)); err != nil {
		return nil, err
	}
	k := m.Key.String()
	b.recordEvent(ctx, m.Key, "scored", side, map[string]interface{}{"scored": len(scores), "comparisons": len(comparisons)})
	b.publish(hermes.SubjectMatchupScored(k), hermes.MatchupScoredEvent{Key: k, Side: string(side), Scored: len(scores)})
	return scores, nil
}

func (b *Broker) matchupForSide(ctx context.Context, key store.MatchupKey, side store.Side) (*store.Matchup, error) {
	if _, err := store.ParseSide(string(side)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return b.GetMatchup(ctx, key)
}

func (b *Broker) rank(ctx context.Context, m *store.Matchup, side store.Side, votes []rating.PairwiseOutcome, method string) (*RankResult, error) {
	res, err := rating.SolveDetailed(votes,
		rating.WithMaxIters(b.cfg.Solver.MaxIters),
		rating.WithEpsilon(b.cfg.Solver.Epsilon),
		rating.WithRule(b.rule),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	metrics.ObserveSolve(res.Iterations, res.Converged)
	if !res.Converged {
		b.logger.Warn("rating solve did not converge", "matchup", m.Key.String(), "side", side, "iterations", res.Iterations, "delta", res.Delta)
	}

	ranks := rating.Rank(res.Ratings)
	if err := b.saveRanks(ctx, m.Key, side, ranks, votes); err != nil {
		return nil, err
	}

	k := m.Key.String()
	b.recordEvent(ctx, m.Key, "ranked", side, map[string]interface{}{
		"method": method, "rule": b.rule.String(), "votes": len(votes), "iterations": res.Iterations, "converged": res.Converged,
	})
	b.publish(hermes.SubjectMatchupRanked(k), hermes.MatchupRankedEvent{
		Key:        k,
		Side:       string(side),
		Method:     method,
		Votes:      len(votes),
		Iterations: res.Iterations,
		Converged:  res.Converged,
		RankedAt:   time.Now().UTC(),
	})
	b.logger.Info("matchup ranked", "matchup", k, "side", side, "method", method, "votes", len(votes), "iterations", res.Iterations)

	return &RankResult{
		Rankings:   ranks,
		Votes:      votes,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}, nil
}

func (b *Broker) saveRanks(ctx context.Context, key store.MatchupKey, side store.Side, ranks []rating.RankedScore, votes []rating.PairwiseOutcome) error {
	err := b.store.SaveRanks(ctx, key, side, ranks, votes)
	if errors.Is(err, store.ErrMatchupNotFound) {
		return fmt.Errorf("%w: matchup %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("save ranks: %w", err)
	}
	return nil
}

func (b *Broker) generate(ranking []candidates.ScoredItem, limit int) ([]candidates.Candidate, error) {
	gen := candidates.Generator{MaxItems: b.cfg.Candidates.MaxItems}
	cands, err := gen.Generate(ranking)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesGenerated.Observe(float64(len(cands)))
	if limit <= 0 {
		limit = b.cfg.Candidates.Limit
	}
	return candidates.Top(cands, limit), nil
}

func (b *Broker) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := b.cfg.LLMTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func scoredItems(ranks []rating.RankedScore) []candidates.ScoredItem {
	out := make([]candidates.ScoredItem, len(ranks))
	for i, r := range ranks {
		out[i] = candidates.ScoredItem{Item: r.Item, Rank: r.Rank, Score: float64(r.Score)}
	}
	return out
}

func savedRanking(m *store.Matchup, side store.Side) ([]rating.RankedItem, error) {
	saved := m.Ranks(side)
	if len(saved) == 0 {
		return nil, fmt.Errorf("%w: side %s has no saved ranking", ErrInvalidInput, side)
	}
	out := make([]rating.RankedItem, len(saved))
	for i, r := range saved {
		out[i] = rating.RankedItem{Item: r.Item, Rank: r.Rank}
	}
	return out, nil
}

// checkFullRanking requires every matchup player exactly once with a
// distinct positive rank.
func checkFullRanking(m *store.Matchup, ranking []rating.RankedItem) error {
	players := make(map[string]struct{}, len(m.Players))
	for _, id := range m.PlayerIDs() {
		players[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(ranking))
	ranks := make(map[int]struct{}, len(ranking))
	for _, r := range ranking {
		if _, ok := players[r.Item]; !ok {
			return fmt.Errorf("%w: player %s is not in the matchup", ErrInvalidInput, r.Item)
		}
		if _, dup := seen[r.Item]; dup {
			return fmt.Errorf("%w: player %s ranked twice", ErrInvalidInput, r.Item)
		}
		if r.Rank < 1 {
			return fmt.Errorf("%w: player %s has rank %d", ErrInvalidInput, r.Item, r.Rank)
		}
		if _, dup := ranks[r.Rank]; dup {
			return fmt.Errorf("%w: rank %d used twice", ErrInvalidInput, r.Rank)
		}
		seen[r.Item] = struct{}{}
		ranks[r.Rank] = struct{}{}
	}
	if len(seen) != len(players) {
		return fmt.Errorf("%w: ranked %d of %d players", ErrInvalidInput, len(seen), len(players))
	}
	return nil
}

func checkKnown(m *store.Matchup, items []string) error {
	players := make(map[string]struct{}, len(m.Players))
	for _, id := range m.PlayerIDs() {
		players[id] = struct{}{}
	}
	for _, it := range items {
		if _, ok := players[it]; !ok {
			return fmt.Errorf("%w: player %s is not in the matchup", ErrInvalidInput, it)
		}
	}
	return nil
}

func outcomeItems(outcomes []rating.PairwiseOutcome) []string {
	out := make([]string, 0, 2*len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.ItemA, o.ItemB)
	}
	return out
}

package rating

import (
	"fmt"
	"math"
	"sort"
)

// TwoForOneVerdict is the human answer to "i + j or k?".
type TwoForOneVerdict string

const (
	VerdictUnset  TwoForOneVerdict = ""
	VerdictPair   TwoForOneVerdict = "pair"
	VerdictSingle TwoForOneVerdict = "single"
)

// TwoForOne is an answered (or pending) pair-vs-singleton comparison.
type TwoForOne struct {
	I      Item             `json:"i"`
	J      Item             `json:"j"`
	K      Item             `json:"k"`
	Winner TwoForOneVerdict `json:"winner"`
}

// Group converts the comparison to its GroupOutcome form.
func (t TwoForOne) Group() GroupOutcome {
	g := GroupOutcome{GroupA: []Item{t.I, t.J}, GroupB: []Item{t.K}}
	switch t.Winner {
	case VerdictPair:
		g.Winner = SideA
	case VerdictSingle:
		g.Winner = SideB
	}
	return g
}

// ExpandGroupOutcomes flattens resolved group outcomes into pairwise
// outcomes: every member of the winning group beats every member of the
// losing group. Unresolved outcomes are skipped.
func ExpandGroupOutcomes(groups []GroupOutcome) ([]PairwiseOutcome, error) {
	var out []PairwiseOutcome
	for n, g := range groups {
		if !g.Resolved() {
			continue
		}
		if len(g.GroupA) == 0 || len(g.GroupB) == 0 {
			return nil, fmt.Errorf("%w: group outcome %d has an empty side", ErrInvalidInput, n)
		}
		seen := make(map[Item]struct{}, len(g.GroupA))
		for _, it := range g.GroupA {
			seen[it] = struct{}{}
		}
		for _, it := range g.GroupB {
			if _, ok := seen[it]; ok {
				return nil, fmt.Errorf("%w: group outcome %d has %q on both sides", ErrInvalidInput, n, it)
			}
		}
		for _, a := range g.GroupA {
			for _, b := range g.GroupB {
				w := a
				if g.Winner == SideB {
					w = b
				}
				out = append(out, PairwiseOutcome{ItemA: a, ItemB: b, Winner: w})
			}
		}
	}
	return out, nil
}

// ExpandTwoForOnes turns answered 2-for-1 comparisons into pairwise
// outcomes (i vs k and j vs k). Unanswered ones are skipped.
func ExpandTwoForOnes(tfos []TwoForOne) ([]PairwiseOutcome, error) {
	groups := make([]GroupOutcome, 0, len(tfos))
	for _, t := range tfos {
		groups = append(groups, t.Group())
	}
	return ExpandGroupOutcomes(groups)
}

// SolveGroups expands resolved group outcomes and solves them.
func SolveGroups(groups []GroupOutcome, opts ...Option) (*Result, error) {
	pairs, err := ExpandGroupOutcomes(groups)
	if err != nil {
		return nil, err
	}
	return SolveDetailed(pairs, opts...)
}

// SeedOutcomes builds the bootstrap vote set for a linear ranking: each
// unordered pair once, with the better-ranked item winning.
func SeedOutcomes(ranking []RankedItem) []PairwiseOutcome {
	var out []PairwiseOutcome
	for a := 0; a < len(ranking); a++ {
		for b := a + 1; b < len(ranking); b++ {
			p, q := ranking[a], ranking[b]
			if p.Item == q.Item {
				continue
			}
			w := p.Item
			if q.Rank < p.Rank {
				w = q.Item
			}
			out = append(out, PairwiseOutcome{ItemA: p.Item, ItemB: q.Item, Winner: w})
		}
	}
	return out
}

// Rank orders ratings best first, assigns dense 1-based ranks and a
// 0-100 display score. Equal ratings are ordered by item id.
func Rank(r Ratings) []RankedScore {
	items := make([]Item, 0, len(r))
	for it := range r {
		items = append(items, it)
	}
	sort.Slice(items, func(a, b int) bool {
		if r[items[a]] != r[items[b]] {
			return r[items[a]] > r[items[b]]
		}
		return items[a] < items[b]
	})

	out := make([]RankedScore, len(items))
	for i, it := range items {
		out[i] = RankedScore{
			Item:  it,
			Rank:  i + 1,
			Score: int(math.Round(r[it] * 100)),
		}
	}
	return out
}

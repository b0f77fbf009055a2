// Package candidates proposes 2-for-1 comparisons worth asking a human.
//
// Generation is O(n³) in the number of ranked items. That is fine for a
// fantasy roster selection (at most 15 players) but callers should bound
// the input; see MaxItems.
package candidates

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultLimit is how many candidates a caller typically shows per round.
const DefaultLimit = 10

var ErrInvalidInput = errors.New("invalid candidate input")

// ScoredItem is a ranked item with the score from a prior solver pass.
type ScoredItem struct {
	Item  string  `json:"player_id"`
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}

// Candidate asks whether I and J together are worth more than K.
// Gap is |score(I) + score(J) - score(K)|; smaller is more informative.
type Candidate struct {
	I   string  `json:"i"`
	J   string  `json:"j"`
	K   string  `json:"k"`
	Gap float64 `json:"gap"`
	pos [3]int
}

// Generator enumerates candidates for a scored ranking.
type Generator struct {
	// MaxItems rejects larger rankings. Zero means unbounded.
	MaxItems int
}

// Generate enumerates every (i, j, k) where k individually outranks both i
// and j, sorted by ascending gap. Ties are ordered by the positions of
// i, j and k in the input so the output is deterministic.
func (g Generator) Generate(ranking []ScoredItem) ([]Candidate, error) {
	if err := g.validate(ranking); err != nil {
		return nil, err
	}

	n := len(ranking)
	var out []Candidate
	for a := 0; a < n-1; a++ {
		for b := a + 1; b < n; b++ {
			i, j := ranking[a], ranking[b]
			sum := i.Score + j.Score
			for c := 0; c < n; c++ {
				if c == a || c == b {
					continue
				}
				k := ranking[c]
				if !(k.Rank < i.Rank && k.Rank < j.Rank) {
					continue
				}
				out = append(out, Candidate{
					I:   i.Item,
					J:   j.Item,
					K:   k.Item,
					Gap: math.Abs(sum - k.Score),
					pos: [3]int{a, b, c},
				})
			}
		}
	}

	sort.SliceStable(out, func(x, y int) bool {
		if out[x].Gap != out[y].Gap {
			return out[x].Gap < out[y].Gap
		}
		for p := 0; p < 3; p++ {
			if out[x].pos[p] != out[y].pos[p] {
				return out[x].pos[p] < out[y].pos[p]
			}
		}
		return false
	})
	return out, nil
}

func (g Generator) validate(ranking []ScoredItem) error {
	if g.MaxItems > 0 && len(ranking) > g.MaxItems {
		return fmt.Errorf("%w: %d items exceeds limit of %d", ErrInvalidInput, len(ranking), g.MaxItems)
	}
	items := make(map[string]struct{}, len(ranking))
	ranks := make(map[int]string, len(ranking))
	for _, r := range ranking {
		if r.Item == "" {
			return fmt.Errorf("%w: empty item id", ErrInvalidInput)
		}
		if r.Rank < 1 {
			return fmt.Errorf("%w: %q has rank %d", ErrInvalidInput, r.Item, r.Rank)
		}
		if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			return fmt.Errorf("%w: %q has non-finite score", ErrInvalidInput, r.Item)
		}
		if _, dup := items[r.Item]; dup {
			return fmt.Errorf("%w: duplicate item %q", ErrInvalidInput, r.Item)
		}
		if other, dup := ranks[r.Rank]; dup {
			return fmt.Errorf("%w: %q and %q share rank %d", ErrInvalidInput, other, r.Item, r.Rank)
		}
		items[r.Item] = struct{}{}
		ranks[r.Rank] = r.Item
	}
	return nil
}

// Generate runs an unbounded Generator.
func Generate(ranking []ScoredItem) ([]Candidate, error) {
	return Generator{}.Generate(ranking)
}

// Top returns at most n candidates from the front of cands.
func Top(cands []Candidate, n int) []Candidate {
	if n < 0 || n >= len(cands) {
		return cands
	}
	return cands[:n]
}

package rating

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultMaxIters = 1000
	DefaultEpsilon  = 1e-6

	// ratingFloor keeps divisors strictly positive for items that never win.
	ratingFloor = 1e-9
)

// UpdateRule selects the per-item update applied on each pass.
type UpdateRule int

const (
	// ZermeloUpdate is the minorization-maximization step
	// r[i] = W[i] / Σ_j (n[i][j] / (r[i] + r[j])), whose fixed point is the
	// Bradley-Terry maximum-likelihood estimate.
	ZermeloUpdate UpdateRule = iota
	// LegacyUpdate is r[i] = Σ w[i][j] / (r[i] + r[j]). It matches ratings
	// produced by the first web client but overrates wins over weak
	// opponents and does not reach the MLE when some item never wins.
	LegacyUpdate
)

// ParseRule maps a config name ("legacy" or "zermelo") to its UpdateRule.
func ParseRule(name string) (UpdateRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "legacy":
		return LegacyUpdate, nil
	case "zermelo", "mm":
		return ZermeloUpdate, nil
	}
	return 0, fmt.Errorf("%w: unknown update rule %q", ErrInvalidInput, name)
}

func (r UpdateRule) String() string {
	if r == LegacyUpdate {
		return "legacy"
	}
	return "zermelo"
}

// Options tunes the fixed-point iteration.
type Options struct {
	MaxIters int
	Epsilon  float64
	Rule     UpdateRule
}

// Option mutates Options.
type Option func(*Options)

// WithMaxIters caps the number of iterations.
func WithMaxIters(n int) Option {
	return func(o *Options) { o.MaxIters = n }
}

// WithRule picks the update rule.
func WithRule(rule UpdateRule) Option {
	return func(o *Options) { o.Rule = rule }
}

// WithEpsilon sets the convergence tolerance on the largest per-item change.
func WithEpsilon(eps float64) Option {
	return func(o *Options) { o.Epsilon = eps }
}

// Result is the solver output plus convergence diagnostics. Reaching
// MaxIters without converging is not an error; Converged is simply false.
type Result struct {
	Ratings    Ratings `json:"ratings"`
	Iterations int     `json:"iterations"`
	Delta      float64 `json:"delta"`
	Converged  bool    `json:"converged"`
}

// Solve fits Bradley-Terry strengths to the outcomes using the Zermelo
// (minorization-maximization) iteration and returns the ratings.
func Solve(outcomes []PairwiseOutcome, opts ...Option) (Ratings, error) {
	res, err := SolveDetailed(outcomes, opts...)
	if err != nil {
		return nil, err
	}
	return res.Ratings, nil
}

// SolveDetailed is Solve with iteration count and final delta.
func SolveDetailed(outcomes []PairwiseOutcome, opts ...Option) (*Result, error) {
	o := Options{MaxIters: DefaultMaxIters, Epsilon: DefaultEpsilon}
	for _, fn := range opts {
		fn(&o)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("%w: no outcomes", ErrInvalidInput)
	}
	if o.MaxIters < 0 {
		return nil, fmt.Errorf("%w: max iterations %d", ErrInvalidInput, o.MaxIters)
	}

	// Items are indexed in first-appearance order so every pass visits them
	// in the same sequence and float sums are reproducible.
	index := make(map[Item]int)
	var items []Item
	add := func(it Item) int {
		if i, ok := index[it]; ok {
			return i
		}
		index[it] = len(items)
		items = append(items, it)
		return len(items) - 1
	}

	type tally struct{ a, b, winner int }
	tallies := make([]tally, 0, len(outcomes))
	for n, oc := range outcomes {
		if oc.ItemA == oc.ItemB {
			return nil, fmt.Errorf("%w: outcome %d compares %q with itself", ErrInvalidInput, n, oc.ItemA)
		}
		if oc.Winner != oc.ItemA && oc.Winner != oc.ItemB {
			return nil, fmt.Errorf("%w: outcome %d winner %q is neither %q nor %q", ErrInvalidInput, n, oc.Winner, oc.ItemA, oc.ItemB)
		}
		a, b := add(oc.ItemA), add(oc.ItemB)
		w := a
		if oc.Winner == oc.ItemB {
			w = b
		}
		tallies = append(tallies, tally{a: a, b: b, winner: w})
	}

	n := len(items)
	wins := make([][]float64, n)
	matches := make([][]float64, n)
	for i := range wins {
		wins[i] = make([]float64, n)
		matches[i] = make([]float64, n)
	}
	totalWins := make([]float64, n)
	for _, t := range tallies {
		matches[t.a][t.b]++
		matches[t.b][t.a]++
		if t.winner == t.a {
			wins[t.a][t.b]++
		} else {
			wins[t.b][t.a]++
		}
		totalWins[t.winner]++
	}

	r := make([]float64, n)
	for i := range r {
		r[i] = 1
	}
	next := make([]float64, n)

	res := &Result{}
	for iter := 0; iter < o.MaxIters; iter++ {
		maxR := 0.0
		for i := 0; i < n; i++ {
			next[i] = update(o.Rule, i, r, wins, matches, totalWins)
			if next[i] > maxR {
				maxR = next[i]
			}
		}
		res.Iterations = iter + 1

		// Every update term is zero; there is nothing to normalize
		// against, so keep the previous estimate.
		if maxR == 0 {
			res.Delta = 0
			res.Converged = true
			break
		}

		delta := 0.0
		for i := 0; i < n; i++ {
			next[i] /= maxR
			if d := math.Abs(next[i] - r[i]); d > delta {
				delta = d
			}
		}
		r, next = next, r
		res.Delta = delta
		if delta < o.Epsilon {
			res.Converged = true
			break
		}
	}

	res.Ratings = make(Ratings, n)
	for i, it := range items {
		res.Ratings[it] = r[i]
	}
	return res, nil
}

func update(rule UpdateRule, i int, r []float64, wins, matches [][]float64, totalWins []float64) float64 {
	sum := 0.0
	for j := range r {
		if i == j || matches[i][j] == 0 {
			continue
		}
		denom := floor(r[i]) + floor(r[j])
		if rule == LegacyUpdate {
			sum += wins[i][j] / denom
		} else {
			sum += matches[i][j] / denom
		}
	}
	if rule == LegacyUpdate {
		return sum
	}
	// Every item appears in at least one outcome, so sum > 0 here.
	return totalWins[i] / sum
}

func floor(v float64) float64 {
	if v < ratingFloor {
		return ratingFloor
	}
	return v
}

// Package exchange searches for trades between two rosters.
//
// Both forms enumerate every non-empty subset of each roster, which is
// exponential: two 15-player rosters give about 1.07e9 candidate pairs.
// Subsets are bitmasks, the counterparty's subsets are sorted once and
// joined with binary search, and the work is split across a bounded
// worker pool. The set of returned pairs is the same as a full cross
// product; only the order differs.
package exchange

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxRosterSize = 15
	DefaultMaxResults    = 250000

	// chunkSize is the number of A subsets handed to one worker at a time.
	chunkSize = 1024
)

// Limits guards a Searcher against runaway enumeration.
type Limits struct {
	// MaxRosterSize rejects larger rosters. Zero means the package default.
	MaxRosterSize int
	// MaxResults fails the search once more pairs qualify. Zero disables.
	MaxResults int
	// Workers bounds concurrent chunks. Zero means GOMAXPROCS.
	Workers int
}

// DefaultLimits returns the limits used by the package-level functions.
func DefaultLimits() Limits {
	return Limits{
		MaxRosterSize: DefaultMaxRosterSize,
		MaxResults:    DefaultMaxResults,
	}
}

// Searcher runs exchange searches under a fixed set of limits. It holds no
// per-search state and is safe for concurrent use.
type Searcher struct {
	limits Limits
}

// NewSearcher creates a Searcher.
func NewSearcher(limits Limits) *Searcher {
	if limits.MaxRosterSize <= 0 {
		limits.MaxRosterSize = DefaultMaxRosterSize
	}
	if limits.MaxRosterSize > hardRosterLimit {
		limits.MaxRosterSize = hardRosterLimit
	}
	if limits.Workers <= 0 {
		limits.Workers = runtime.GOMAXPROCS(0)
	}
	return &Searcher{limits: limits}
}

// Limits returns the effective limits.
func (s *Searcher) Limits() Limits {
	return s.limits
}

// FindFair returns every pair of non-empty subsets whose value sums differ
// by at most margin. The boundary is inclusive.
func (s *Searcher) FindFair(ctx context.Context, a, b []ValuedItem, margin float64) ([]Pair, error) {
	if math.IsNaN(margin) || margin < 0 {
		return nil, fmt.Errorf("%w: margin %v", ErrInvalidInput, margin)
	}
	ra, va, err := s.valuedRoster(a)
	if err != nil {
		return nil, err
	}
	rb, vb, err := s.valuedRoster(b)
	if err != nil {
		return nil, err
	}
	if err := checkDisjoint(ra, rb); err != nil {
		return nil, err
	}

	subsA := enumerate(va, va)
	subsB := enumerate(vb, vb)
	sort.SliceStable(subsB, func(i, j int) bool { return subsB[i].own < subsB[j].own })

	// slack widens the search window past rounding in sa±margin; the exact
	// predicate decides membership.
	return s.run(ctx, len(subsA), func(lo, hi int, emit func(Pair) error) error {
		for _, sa := range subsA[lo:hi] {
			slack := 1e-9 * (1 + math.Abs(sa.own) + margin)
			from := sort.Search(len(subsB), func(k int) bool {
				return subsB[k].own >= sa.own-margin-slack
			})
			var giveA []string
			for _, sb := range subsB[from:] {
				if sb.own > sa.own+margin+slack {
					break
				}
				if math.Abs(sa.own-sb.own) > margin {
					continue
				}
				if giveA == nil {
					giveA = ra.members(sa.mask)
				}
				if err := emit(newPair(giveA, rb.members(sb.mask), sa.own, sb.own, sb.own, sa.own)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// FindMutual returns every trade that strictly improves both parties by
// their own valuations. Each party only offers items from its own roster.
// Items missing from a valuation are worth zero to that party.
func (s *Searcher) FindMutual(ctx context.Context, rosterA, rosterB []string, valA, valB map[string]float64) ([]Pair, error) {
	ra, err := s.plainRoster(rosterA)
	if err != nil {
		return nil, err
	}
	rb, err := s.plainRoster(rosterB)
	if err != nil {
		return nil, err
	}
	if err := checkDisjoint(ra, rb); err != nil {
		return nil, err
	}

	// For A's subsets own=valA, other=valB; for B's subsets own=valB,
	// other=valA.
	aOwn, aOther, err := valuations(ra, valA, valB)
	if err != nil {
		return nil, err
	}
	bOwn, bOther, err := valuations(rb, valB, valA)
	if err != nil {
		return nil, err
	}
	subsA := enumerate(aOwn, aOther)
	subsB := enumerate(bOwn, bOther)
	sort.SliceStable(subsB, func(i, j int) bool { return subsB[i].other < subsB[j].other })

	return s.run(ctx, len(subsA), func(lo, hi int, emit func(Pair) error) error {
		for _, sa := range subsA[lo:hi] {
			// A only gains from B subsets it values above its own offer.
			from := sort.Search(len(subsB), func(k int) bool {
				return subsB[k].other > sa.own
			})
			var giveA []string
			for _, sb := range subsB[from:] {
				gainA := sb.other - sa.own
				gainB := sa.other - sb.own
				if gainA <= 0 || gainB <= 0 {
					continue
				}
				if giveA == nil {
					giveA = ra.members(sa.mask)
				}
				if err := emit(newPair(giveA, rb.members(sb.mask), sa.own, sb.other, sb.own, sa.other)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Searcher) checkSize(n int) error {
	if n > s.limits.MaxRosterSize {
		return fmt.Errorf("%w: roster of %d items exceeds limit of %d", ErrResourceExhausted, n, s.limits.MaxRosterSize)
	}
	return nil
}

func (s *Searcher) valuedRoster(items []ValuedItem) (roster, []float64, error) {
	if err := s.checkSize(len(items)); err != nil {
		return roster{}, nil, err
	}
	ids := make([]string, len(items))
	vals := make([]float64, len(items))
	for i, it := range items {
		if err := checkFinite(it.Item, it.Value); err != nil {
			return roster{}, nil, err
		}
		ids[i] = it.Item
		vals[i] = it.Value
	}
	r, err := newRoster(ids)
	return r, vals, err
}

func (s *Searcher) plainRoster(items []string) (roster, error) {
	if err := s.checkSize(len(items)); err != nil {
		return roster{}, err
	}
	return newRoster(items)
}

func valuations(r roster, own, other map[string]float64) ([]float64, []float64, error) {
	o := make([]float64, len(r.items))
	t := make([]float64, len(r.items))
	for i, it := range r.items {
		o[i], t[i] = own[it], other[it]
		if err := checkFinite(it, o[i]); err != nil {
			return nil, nil, err
		}
		if err := checkFinite(it, t[i]); err != nil {
			return nil, nil, err
		}
	}
	return o, t, nil
}

// run splits [0, n) into chunks, evaluates them on a bounded errgroup and
// concatenates the results in chunk order.
func (s *Searcher) run(ctx context.Context, n int, chunk func(lo, hi int, emit func(Pair) error) error) ([]Pair, error) {
	if n == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	}

	chunks := (n + chunkSize - 1) / chunkSize
	results := make([][]Pair, chunks)
	var found atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.Workers)
	for c := 0; c < chunks; c++ {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := c * chunkSize
			hi := min(lo+chunkSize, n)
			return chunk(lo, hi, func(p Pair) error {
				if s.limits.MaxResults > 0 && found.Add(1) > int64(s.limits.MaxResults) {
					return fmt.Errorf("%w: more than %d qualifying trades", ErrResourceExhausted, s.limits.MaxResults)
				}
				results[c] = append(results[c], p)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, ctx.Err())
		}
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]Pair, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

var defaultSearcher = NewSearcher(DefaultLimits())

// FindFairExchanges runs FindFair with the default limits.
func FindFairExchanges(a, b []ValuedItem, margin float64) ([]Pair, error) {
	return defaultSearcher.FindFair(context.Background(), a, b, margin)
}

// FindMutualExchanges runs FindMutual with the default limits.
func FindMutualExchanges(rosterA, rosterB []string, valA, valB map[string]float64) ([]Pair, error) {
	return defaultSearcher.FindMutual(context.Background(), rosterA, rosterB, valA, valB)
}

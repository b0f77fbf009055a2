package exchange

import (
	"fmt"
	"math"
	"math/bits"
)

// hardRosterLimit bounds bitmask enumeration regardless of configuration.
const hardRosterLimit = 24

// roster assigns each item a stable bit position.
type roster struct {
	items []string
}

// subset is a non-empty bitmask over a roster with up to two valuations:
// own is the offering party's value, other is the counterparty's.
type subset struct {
	mask  uint32
	own   float64
	other float64
}

func newRoster(items []string) (roster, error) {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it == "" {
			return roster{}, fmt.Errorf("%w: empty item id", ErrInvalidInput)
		}
		if _, dup := seen[it]; dup {
			return roster{}, fmt.Errorf("%w: duplicate item %q", ErrInvalidInput, it)
		}
		seen[it] = struct{}{}
	}
	return roster{items: items}, nil
}

func checkDisjoint(a, b roster) error {
	inA := make(map[string]struct{}, len(a.items))
	for _, it := range a.items {
		inA[it] = struct{}{}
	}
	for _, it := range b.items {
		if _, ok := inA[it]; ok {
			return fmt.Errorf("%w: %q is on both rosters", ErrInvalidInput, it)
		}
	}
	return nil
}

// members lists the items of mask in roster order.
func (r roster) members(mask uint32) []string {
	out := make([]string, 0, bits.OnesCount32(mask))
	for m := mask; m != 0; m &= m - 1 {
		out = append(out, r.items[bits.TrailingZeros32(m)])
	}
	return out
}

// enumerate returns every non-empty subset in mask order. Sums are built by
// adding the highest member last, so each equals a left-to-right sum over
// the members in roster order.
func enumerate(own, other []float64) []subset {
	n := len(own)
	if n == 0 {
		return nil
	}
	total := uint32(1) << n
	ownSum := make([]float64, total)
	otherSum := make([]float64, total)
	out := make([]subset, 0, total-1)
	for mask := uint32(1); mask < total; mask++ {
		hi := bits.Len32(mask) - 1
		rest := mask &^ (1 << hi)
		ownSum[mask] = ownSum[rest] + own[hi]
		otherSum[mask] = otherSum[rest] + other[hi]
		out = append(out, subset{mask: mask, own: ownSum[mask], other: otherSum[mask]})
	}
	return out
}

func checkFinite(item string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %q has non-finite value", ErrInvalidInput, item)
	}
	return nil
}

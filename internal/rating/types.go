package rating

import "errors"

// ErrInvalidInput is returned when the caller violates the solver contract.
var ErrInvalidInput = errors.New("invalid rating input")

// Item is an opaque player identifier.
type Item = string

// PairwiseOutcome records a single head-to-head result. Winner must equal
// ItemA or ItemB.
type PairwiseOutcome struct {
	ItemA  Item `json:"a"`
	ItemB  Item `json:"b"`
	Winner Item `json:"winner"`
}

// GroupSide identifies the winning side of a group comparison.
type GroupSide string

const (
	SideUnset GroupSide = ""
	SideA     GroupSide = "a"
	SideB     GroupSide = "b"
)

// GroupOutcome generalizes PairwiseOutcome to groups of items. An unset
// winner means the comparison is still waiting on a human.
type GroupOutcome struct {
	GroupA []Item    `json:"group_a"`
	GroupB []Item    `json:"group_b"`
	Winner GroupSide `json:"winner"`
}

// Resolved reports whether a winner has been picked.
func (g GroupOutcome) Resolved() bool {
	return g.Winner == SideA || g.Winner == SideB
}

// Ratings maps each item to a non-negative strength, max-normalized to 1.
type Ratings map[Item]float64

// RankedItem is an item with its dense 1-based rank (1 = best).
type RankedItem struct {
	Item Item `json:"player_id"`
	Rank int  `json:"rank"`
}

// RankedScore is a ranked item carrying a display score on a 0-100 scale.
type RankedScore struct {
	Item  Item `json:"player_id"`
	Rank  int  `json:"rank"`
	Score int  `json:"score"`
}

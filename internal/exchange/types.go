package exchange

import (
	"errors"
	"math"
)

var (
	// ErrInvalidInput covers duplicate or shared items, bad margins and
	// non-finite values.
	ErrInvalidInput = errors.New("invalid exchange input")

	// ErrResourceExhausted is returned instead of running a search that is
	// too large to finish: oversized rosters, too many qualifying pairs, or
	// a cancelled context.
	ErrResourceExhausted = errors.New("exchange search exhausted")
)

// ValuedItem is one party's value for one of its items.
type ValuedItem struct {
	Item  string  `json:"player_id"`
	Value float64 `json:"score"`
}

// Exchange is one side of a trade from the point of view of a single party.
type Exchange struct {
	Give         []string `json:"give"`
	Receive      []string `json:"receive"`
	GiveValue    float64  `json:"give_value"`
	ReceiveValue float64  `json:"receive_value"`
}

// Gain is what the party receives minus what it gives, by its own values.
func (e Exchange) Gain() float64 {
	return e.ReceiveValue - e.GiveValue
}

// Pair is a complete trade: A gives A.Give and receives B.Give.
// Diff is the absolute value difference as seen by party A.
type Pair struct {
	A    Exchange `json:"a"`
	B    Exchange `json:"b"`
	Diff float64  `json:"diff"`
}

func newPair(giveA, giveB []string, aGive, aRecv, bGive, bRecv float64) Pair {
	return Pair{
		A:    Exchange{Give: giveA, Receive: giveB, GiveValue: aGive, ReceiveValue: aRecv},
		B:    Exchange{Give: giveB, Receive: giveA, GiveValue: bGive, ReceiveValue: bRecv},
		Diff: math.Abs(aRecv - aGive),
	}
}

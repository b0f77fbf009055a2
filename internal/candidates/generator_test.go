package candidates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triples(cands []Candidate) [][3]string {
	out := make([][3]string, len(cands))
	for i, c := range cands {
		out[i] = [3]string{c.I, c.J, c.K}
	}
	return out
}

func TestGenerate_SingletonMustOutrankBoth(t *testing.T) {
	ranking := []ScoredItem{
		{Item: "A", Rank: 1, Score: 100},
		{Item: "B", Rank: 2, Score: 60},
		{Item: "C", Rank: 3, Score: 30},
	}

	cands, err := Generate(ranking)
	require.NoError(t, err)
	assert.Equal(t, [][3]string{{"B", "C", "A"}}, triples(cands))
	assert.InDelta(t, 10, cands[0].Gap, 1e-9)
}

func TestGenerate_SortedByGap(t *testing.T) {
	ranking := []ScoredItem{
		{Item: "A", Rank: 1, Score: 100},
		{Item: "B", Rank: 2, Score: 70},
		{Item: "C", Rank: 3, Score: 45},
		{Item: "D", Rank: 4, Score: 20},
	}

	cands, err := Generate(ranking)
	require.NoError(t, err)

	require.Len(t, cands, 4)
	assert.Equal(t, [][3]string{
		{"C", "D", "B"}, // |65-70|
		{"B", "D", "A"}, // |90-100|
		{"B", "C", "A"}, // |115-100|
		{"C", "D", "A"}, // |65-100|
	}, triples(cands))

	for i := 1; i < len(cands); i++ {
		assert.LessOrEqual(t, cands[i-1].Gap, cands[i].Gap)
	}
	for _, c := range cands {
		assert.NotEqual(t, c.K, c.I)
		assert.NotEqual(t, c.K, c.J)
	}
}

func TestGenerate_TiesFollowInputOrder(t *testing.T) {
	ranking := []ScoredItem{
		{Item: "A", Rank: 1, Score: 10},
		{Item: "B", Rank: 2, Score: 5},
		{Item: "C", Rank: 3, Score: 5},
		{Item: "D", Rank: 4, Score: 5},
	}

	cands, err := Generate(ranking)
	require.NoError(t, err)
	assert.Equal(t, [][3]string{
		{"B", "C", "A"},
		{"B", "D", "A"},
		{"C", "D", "A"},
		{"C", "D", "B"},
	}, triples(cands))
}

func TestGenerate_RankOrderIndependentOfInputOrder(t *testing.T) {
	ranking := []ScoredItem{
		{Item: "C", Rank: 3, Score: 30},
		{Item: "A", Rank: 1, Score: 100},
		{Item: "B", Rank: 2, Score: 60},
	}

	cands, err := Generate(ranking)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "A", cands[0].K)
	assert.ElementsMatch(t, []string{"B", "C"}, []string{cands[0].I, cands[0].J})
}

func TestGenerate_SmallRankings(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		ranking := make([]ScoredItem, n)
		for i := range ranking {
			ranking[i] = ScoredItem{Item: string(rune('a' + i)), Rank: i + 1}
		}
		cands, err := Generate(ranking)
		require.NoError(t, err)
		assert.Empty(t, cands)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		ranking []ScoredItem
	}{
		{"duplicate rank", []ScoredItem{{Item: "a", Rank: 1}, {Item: "b", Rank: 1}}},
		{"duplicate item", []ScoredItem{{Item: "a", Rank: 1}, {Item: "a", Rank: 2}}},
		{"zero rank", []ScoredItem{{Item: "a", Rank: 0}}},
		{"empty id", []ScoredItem{{Item: "", Rank: 1}}},
		{"nan score", []ScoredItem{{Item: "a", Rank: 1, Score: math.NaN()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.ranking)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGenerator_MaxItems(t *testing.T) {
	g := Generator{MaxItems: 2}
	_, err := g.Generate([]ScoredItem{{Item: "a", Rank: 1}, {Item: "b", Rank: 2}, {Item: "c", Rank: 3}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTop(t *testing.T) {
	cands := []Candidate{{I: "a"}, {I: "b"}, {I: "c"}}
	assert.Len(t, Top(cands, 2), 2)
	assert.Len(t, Top(cands, 10), 3)
	assert.Len(t, Top(cands, -1), 3)
	assert.Empty(t, Top(cands, 0))
}

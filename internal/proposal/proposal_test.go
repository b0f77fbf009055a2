package proposal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var ranking = []rating.RankedItem{
	{Item: "p1", Rank: 1},
	{Item: "p2", Rank: 2},
	{Item: "p3", Rank: 3},
	{Item: "p4", Rank: 4},
}

func TestPropose(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n" + `{"comparisons": [
		{"id": "c1", "a": ["p2", "p3"], "b": ["p1"], "winner": "a"},
		{"a": ["p3", "p4"], "b": ["p1", "p2"], "winner": ""}
	]}` + "\n```"}
	c := NewClient(fc, testLogger())

	got, err := c.Propose(context.Background(), ranking, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "2-for-1", got[0].Type)
	assert.Equal(t, rating.SideUnset, got[0].Winner, "model-supplied winners are cleared")
	assert.NotEmpty(t, got[1].ID, "missing ids are generated")
	assert.Equal(t, "2-for-2", got[1].Type)

	assert.Contains(t, fc.user, `"player_id": "p1"`)
	assert.Contains(t, fc.user, "at most 3 comparisons")
}

func TestPropose_TruncatesToCount(t *testing.T) {
	fc := &fakeCompleter{reply: `{"comparisons": [
		{"a": ["p2"], "b": ["p1"]},
		{"a": ["p3"], "b": ["p1"]},
		{"a": ["p4"], "b": ["p1"]}
	]}`}
	got, err := NewClient(fc, testLogger()).Propose(context.Background(), ranking, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPropose_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Error fetching comparisons"},
		{"empty", "   "},
		{"missing key", `{"pairs": []}`},
		{"unknown player", `{"comparisons": [{"a": ["p9"], "b": ["p1"]}]}`},
		{"empty group", `{"comparisons": [{"a": [], "b": ["p1"]}]}`},
		{"player on both sides", `{"comparisons": [{"a": ["p1", "p2"], "b": ["p1"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(&fakeCompleter{reply: tt.reply}, testLogger()).Propose(context.Background(), ranking, 3)
			require.ErrorIs(t, err, ErrCollaborator)

			var ce *CollaboratorError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "propose", ce.Op)
			assert.Equal(t, tt.reply, ce.Raw)
		})
	}
}

func TestPropose_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewClient(&fakeCompleter{err: boom}, testLogger()).Propose(context.Background(), ranking, 3)
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.ErrorIs(t, err, boom)
}

func TestPropose_EmptyRanking(t *testing.T) {
	fc := &fakeCompleter{}
	_, err := NewClient(fc, testLogger()).Propose(context.Background(), nil, 3)
	assert.ErrorIs(t, err, rating.ErrInvalidInput)
	assert.Empty(t, fc.system, "no model call for an empty ranking")
}

func TestScore(t *testing.T) {
	fc := &fakeCompleter{reply: `{"scores": [
		{"player_id": "p1", "rank": 1, "score": 95.4},
		{"player_id": "p2", "rank": 2, "score": 70},
		{"player_id": "p3", "rank": 3, "score": 70},
		{"player_id": "p4", "rank": 4, "score": 81}
	]}`}
	comps := []GroupComparison{{ID: "c1", GroupA: []string{"p2", "p3"}, GroupB: []string{"p1"}, Winner: rating.SideA}}

	got, err := NewClient(fc, testLogger()).Score(context.Background(), ranking, comps)
	require.NoError(t, err)
	assert.Equal(t, []rating.RankedScore{
		{Item: "p1", Rank: 1, Score: 95},
		{Item: "p4", Rank: 2, Score: 81},
		{Item: "p2", Rank: 3, Score: 70},
		{Item: "p3", Rank: 4, Score: 70},
	}, got)
	assert.Contains(t, fc.user, `"winner": "a"`)
}

func TestScore_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Error generating scores"},
		{"missing player", `{"scores": [{"player_id": "p1", "score": 90}]}`},
		{"unknown player", `{"scores": [{"player_id": "p1", "score": 90}, {"player_id": "p2", "score": 80}, {"player_id": "p3", "score": 70}, {"player_id": "zz", "score": 60}]}`},
		{"duplicate", `{"scores": [{"player_id": "p1", "score": 90}, {"player_id": "p1", "score": 80}, {"player_id": "p3", "score": 70}, {"player_id": "p4", "score": 60}]}`},
		{"out of range", `{"scores": [{"player_id": "p1", "score": 190}, {"player_id": "p2", "score": 80}, {"player_id": "p3", "score": 70}, {"player_id": "p4", "score": 60}]}`},
		{"missing score", `{"scores": [{"player_id": "p1"}, {"player_id": "p2", "score": 80}, {"player_id": "p3", "score": 70}, {"player_id": "p4", "score": 60}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(&fakeCompleter{reply: tt.reply}, testLogger()).Score(context.Background(), ranking, nil)
			require.ErrorIs(t, err, ErrCollaborator)

			var ce *CollaboratorError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.reply, ce.Raw)
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":  `{"a":1}`,
		"```\n{\"a\":1}\n```":      `{"a":1}`,
		"  ```{\"a\":1}```  ":      `{"a":1}`,
		"```JSON\n[1, 2]\n```\n\n": `[1, 2]`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFences(in), strings.ReplaceAll(in, "\n", `\n`))
	}
}

func TestCollaboratorErrorMessage(t *testing.T) {
	err := &CollaboratorError{Op: "score", Raw: "x", Err: errors.New("bad")}
	assert.Equal(t, "score: llm collaborator failed: bad", err.Error())
	assert.Equal(t, "score: llm collaborator failed", (&CollaboratorError{Op: "score"}).Error())
}

func TestGroupComparisonOutcome(t *testing.T) {
	g := GroupComparison{GroupA: []string{"p1"}, GroupB: []string{"p2"}, Winner: rating.SideB}
	out := g.Outcome()
	assert.True(t, out.Resolved())
	assert.Equal(t, []string{"p2"}, out.GroupB)
}

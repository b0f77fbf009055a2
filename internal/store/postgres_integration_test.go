//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE barter_matchup_events")
		_, _ = s.pool.Exec(ctx, "TRUNCATE barter_matchups")
		s.Close()
	})

	return s
}

func testMatchup() *Matchup {
	return &Matchup{
		Key:        MatchupKey{UserID: "u1", LeagueID: "l1", LMUserID: "u2"},
		Username:   "alice",
		LeagueName: "Dynasty",
		LMUsername: "bob",
		Players: []RosterPlayer{
			{PlayerID: "4046", Name: "Patrick Mahomes", Position: "QB", Manager: SideUser},
			{PlayerID: "6794", Name: "Justin Jefferson", Position: "WR", Manager: SideLeaguemate},
		},
	}
}

func TestUpsertAndGetMatchup(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	m := testMatchup()
	if err := s.UpsertMatchup(ctx, m); err != nil {
		t.Fatalf("UpsertMatchup failed: %v", err)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetMatchup(ctx, m.Key)
	if err != nil {
		t.Fatalf("GetMatchup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected matchup, got nil")
	}
	if got.Username != "alice" || got.LMUsername != "bob" {
		t.Errorf("unexpected usernames: %s / %s", got.Username, got.LMUsername)
	}
	if len(got.Players) != 2 || got.Players[1].Manager != SideLeaguemate {
		t.Errorf("unexpected players: %+v", got.Players)
	}
	if len(got.UserRanks) != 0 || len(got.LMVotes) != 0 {
		t.Error("expected empty ranks and votes on a new matchup")
	}
}

func TestGetMatchupMissing(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetMatchup(context.Background(), MatchupKey{UserID: "x", LeagueID: "y", LMUserID: "z"})
	if err != nil {
		t.Fatalf("GetMatchup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing matchup, got %+v", got)
	}
}

func TestSaveRanksAndResubmit(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	m := testMatchup()
	if err := s.UpsertMatchup(ctx, m); err != nil {
		t.Fatalf("UpsertMatchup failed: %v", err)
	}

	ranks := []rating.RankedScore{{Item: "4046", Rank: 1, Score: 100}, {Item: "6794", Rank: 2, Score: 50}}
	votes := []rating.PairwiseOutcome{{ItemA: "4046", ItemB: "6794", Winner: "4046"}}
	if err := s.SaveRanks(ctx, m.Key, SideLeaguemate, ranks, votes); err != nil {
		t.Fatalf("SaveRanks failed: %v", err)
	}

	got, err := s.GetMatchup(ctx, m.Key)
	if err != nil {
		t.Fatalf("GetMatchup failed: %v", err)
	}
	if len(got.LMRanks) != 2 || got.LMRanks[0].Item != "4046" {
		t.Errorf("unexpected lm ranks: %+v", got.LMRanks)
	}
	if len(got.LMVotes) != 1 {
		t.Errorf("expected 1 lm vote, got %d", len(got.LMVotes))
	}
	if len(got.UserRanks) != 0 {
		t.Error("user ranks should be untouched")
	}

	// Resubmitting players resets both sides.
	if err := s.UpsertMatchup(ctx, testMatchup()); err != nil {
		t.Fatalf("UpsertMatchup failed: %v", err)
	}
	got, _ = s.GetMatchup(ctx, m.Key)
	if len(got.LMRanks) != 0 || len(got.LMVotes) != 0 {
		t.Error("expected ranks cleared after resubmission")
	}
}

func TestSaveRanksMissingMatchup(t *testing.T) {
	s := setupTestDB(t)

	err := s.SaveRanks(context.Background(), MatchupKey{UserID: "x", LeagueID: "y", LMUserID: "z"}, SideUser, nil, nil)
	if !errors.Is(err, ErrMatchupNotFound) {
		t.Errorf("expected ErrMatchupNotFound, got %v", err)
	}
}

func TestListMatchups(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	a := testMatchup()
	b := testMatchup()
	b.Key.LMUserID = "u3"
	c := testMatchup()
	c.Key.LeagueID = "l2"
	for _, m := range []*Matchup{a, b, c} {
		if err := s.UpsertMatchup(ctx, m); err != nil {
			t.Fatalf("UpsertMatchup failed: %v", err)
		}
	}

	got, err := s.ListMatchups(ctx, MatchupFilter{UserID: "u1", LeagueID: "l1"})
	if err != nil {
		t.Fatalf("ListMatchups failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 matchups in l1, got %d", len(got))
	}

	got, _ = s.ListMatchups(ctx, MatchupFilter{Limit: 1})
	if len(got) != 1 {
		t.Errorf("expected limit to apply, got %d", len(got))
	}
}

func TestMatchupEvents(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	key := testMatchup().Key

	e := &MatchupEvent{MatchupKey: key.String(), Event: "ranked", Side: SideUser, Payload: map[string]interface{}{"votes": 3}}
	if err := s.CreateMatchupEvent(ctx, e); err != nil {
		t.Fatalf("CreateMatchupEvent failed: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("expected event id")
	}

	events, err := s.GetMatchupEvents(ctx, key)
	if err != nil {
		t.Fatalf("GetMatchupEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Event != "ranked" || events[0].Side != SideUser {
		t.Errorf("unexpected events: %+v", events)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

var (
	ErrInvalidKey      = errors.New("invalid matchup key")
	ErrInvalidSide     = errors.New("invalid side")
	ErrMatchupNotFound = errors.New("matchup not found")
)

// Side names whose view of a matchup is being ranked.
type Side string

const (
	SideUser       Side = "u"
	SideLeaguemate Side = "l"
)

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideUser, SideLeaguemate:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideUser {
		return SideLeaguemate
	}
	return SideUser
}

const keySep = "__"

// MatchupKey identifies one user's trade negotiation with one leaguemate
// in one league.
type MatchupKey struct {
	UserID   string `json:"user_id"`
	LeagueID string `json:"league_id"`
	LMUserID string `json:"lm_user_id"`
}

func (k MatchupKey) String() string {
	return k.UserID + keySep + k.LeagueID + keySep + k.LMUserID
}

func (k MatchupKey) Validate() error {
	for _, part := range []string{k.UserID, k.LeagueID, k.LMUserID} {
		if part == "" || strings.Contains(part, keySep) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
		}
	}
	return nil
}

// ParseMatchupKey parses the user__league__leaguemate form produced by
// MatchupKey.String.
func ParseMatchupKey(s string) (MatchupKey, error) {
	parts := strings.Split(s, keySep)
	if len(parts) != 3 {
		return MatchupKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	k := MatchupKey{UserID: parts[0], LeagueID: parts[1], LMUserID: parts[2]}
	if err := k.Validate(); err != nil {
		return MatchupKey{}, err
	}
	return k, nil
}

type RosterPlayer struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`
	Team     string `json:"team,omitempty"`
	Manager  Side   `json:"manager"`
}

type Matchup struct {
	Key        MatchupKey     `json:"key"`
	Username   string         `json:"username"`
	LeagueName string         `json:"league_name"`
	LMUsername string         `json:"lm_username"`
	Players    []RosterPlayer `json:"players"`

	UserRanks []rating.RankedScore     `json:"user_ranks"`
	LMRanks   []rating.RankedScore     `json:"lm_ranks"`
	UserVotes []rating.PairwiseOutcome `json:"user_votes"`
	LMVotes   []rating.PairwiseOutcome `json:"lm_votes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayersFor returns the players managed by side.
func (m *Matchup) PlayersFor(side Side) []RosterPlayer {
	var out []RosterPlayer
	for _, p := range m.Players {
		if p.Manager == side {
			out = append(out, p)
		}
	}
	return out
}

// PlayerIDs returns every selected player id in submission order.
func (m *Matchup) PlayerIDs() []string {
	ids := make([]string, len(m.Players))
	for i, p := range m.Players {
		ids[i] = p.PlayerID
	}
	return ids
}

func (m *Matchup) Ranks(side Side) []rating.RankedScore {
	if side == SideUser {
		return m.UserRanks
	}
	return m.LMRanks
}

func (m *Matchup) Votes(side Side) []rating.PairwiseOutcome {
	if side == SideUser {
		return m.UserVotes
	}
	return m.LMVotes
}

type MatchupFilter struct {
	UserID   string
	LeagueID string
	Limit    int
}

type MatchupEvent struct {
	ID         uuid.UUID              `json:"id"`
	MatchupKey string                 `json:"matchup_key"`
	Event      string                 `json:"event"`
	Side       Side                   `json:"side,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type Store interface {
	// UpsertMatchup creates the matchup or replaces its players, clearing
	// any saved rankings and votes.
	UpsertMatchup(ctx context.Context, m *Matchup) error
	GetMatchup(ctx context.Context, key MatchupKey) (*Matchup, error)
	ListMatchups(ctx context.Context, filter MatchupFilter) ([]*Matchup, error)
	// SaveRanks replaces one side's rankings and votes. It returns
	// ErrMatchupNotFound when the matchup does not exist.
	SaveRanks(ctx context.Context, key MatchupKey, side Side, ranks []rating.RankedScore, votes []rating.PairwiseOutcome) error

	CreateMatchupEvent(ctx context.Context, e *MatchupEvent) error
	GetMatchupEvents(ctx context.Context, key MatchupKey) ([]*MatchupEvent, error)

	Close() error
}

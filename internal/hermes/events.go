package hermes

import "time"

// PlayerRef is a player selected for a matchup. Manager is "u" for the
// requesting user and "l" for the leaguemate.
type PlayerRef struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`
	Team     string `json:"team,omitempty"`
	Manager  string `json:"manager"`
}

// MatchupRequestEvent asks the service to create or replace a matchup.
type MatchupRequestEvent struct {
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	LeagueID   string      `json:"league_id"`
	LeagueName string      `json:"league_name"`
	LMUserID   string      `json:"lm_user_id"`
	LMUsername string      `json:"lm_username"`
	Players    []PlayerRef `json:"players"`
}

type MatchupCreatedEvent struct {
	Key     string `json:"key"`
	Players int    `json:"players"`
	Source  string `json:"source"`
}

type MatchupRankedEvent struct {
	Key        string    `json:"key"`
	Side       string    `json:"side"`
	Method     string    `json:"method"`
	Votes      int       `json:"votes"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
	RankedAt   time.Time `json:"ranked_at"`
}

type MatchupScoredEvent struct {
	Key    string `json:"key"`
	Side   string `json:"side"`
	Scored int    `json:"scored"`
}

type TradesFoundEvent struct {
	Key        string  `json:"key"`
	Mode       string  `json:"mode"`
	Margin     float64 `json:"margin,omitempty"`
	Count      int     `json:"count"`
	DurationMs int64   `json:"duration_ms"`
}

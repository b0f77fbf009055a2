package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Barter/internal/sleeper"
	"github.com/MikeSquared-Agency/Barter/internal/store"
)

type OwnersResult struct {
	LeagueID string          `json:"league_id"`
	User     *sleeper.User   `json:"user,omitempty"`
	Owners   []sleeper.Owner `json:"owners"`
}

// LeagueMatchupRequest builds a matchup from two owners' rosters in one
// league. Player ids must be on the named owner's roster.
type LeagueMatchupRequest struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	LeagueName  string   `json:"league_name"`
	LMUserID    string   `json:"lm_user_id"`
	LMUsername  string   `json:"lm_username"`
	UserPlayers []string `json:"user_players"`
	LMPlayers   []string `json:"lm_players"`
}

// LeagueOwners lists a league's rostered owners. When username is set the
// user is resolved and must own a roster in the league.
func (b *Broker) LeagueOwners(ctx context.Context, leagueID, username string) (*OwnersResult, error) {
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	owners, err := sleeper.LeagueOwners(ctx, b.sleeper, leagueID)
	if err != nil {
		return nil, leagueError(err)
	}
	res := &OwnersResult{LeagueID: leagueID, Owners: owners}
	if username == "" {
		return res, nil
	}

	u, err := b.sleeper.GetUser(ctx, username)
	if err != nil {
		return nil, leagueError(err)
	}
	if _, err := sleeper.FindOwner(owners, u.UserID); err != nil {
		return nil, leagueError(err)
	}
	res.User = u
	return res, nil
}

// CreateLeagueMatchup checks the selections against the live rosters and
// submits the resulting matchup.
func (b *Broker) CreateLeagueMatchup(ctx context.Context, leagueID string, req LeagueMatchupRequest) (*store.Matchup, error) {
	if req.UserID == req.LMUserID {
		return nil, fmt.Errorf("%w: user and leaguemate must differ", ErrInvalidInput)
	}
	owners, err := sleeper.LeagueOwners(ctx, b.sleeper, leagueID)
	if err != nil {
		return nil, leagueError(err)
	}
	user, err := sleeper.FindOwner(owners, req.UserID)
	if err != nil {
		return nil, leagueError(err)
	}
	lm, err := sleeper.FindOwner(owners, req.LMUserID)
	if err != nil {
		return nil, leagueError(err)
	}

	m := &store.Matchup{
		Key:        store.MatchupKey{UserID: req.UserID, LeagueID: leagueID, LMUserID: req.LMUserID},
		Username:   req.Username,
		LeagueName: req.LeagueName,
		LMUsername: req.LMUsername,
	}
	if err := addRosterPlayers(m, user, req.UserPlayers, store.SideUser); err != nil {
		return nil, err
	}
	if err := addRosterPlayers(m, lm, req.LMPlayers, store.SideLeaguemate); err != nil {
		return nil, err
	}

	if err := b.SubmitMatchup(ctx, m, "sleeper"); err != nil {
		return nil, err
	}
	return m, nil
}

func addRosterPlayers(m *store.Matchup, owner *sleeper.Owner, ids []string, side store.Side) error {
	rostered := make(map[string]struct{}, len(owner.Players))
	for _, id := range owner.Players {
		rostered[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := rostered[id]; !ok {
			return fmt.Errorf("%w: player %s is not on %s's roster", ErrInvalidInput, id, owner.UserID)
		}
		m.Players = append(m.Players, store.RosterPlayer{PlayerID: id, Manager: side})
	}
	return nil
}

func leagueError(err error) error {
	if errors.Is(err, sleeper.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

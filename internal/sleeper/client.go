// Package sleeper is a read-only client for the public Sleeper fantasy
// league API, used to look up owners and rosters when building a matchup.
package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when Sleeper answers with a null body.
var ErrNotFound = errors.New("sleeper: not found")

type User struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

type League struct {
	LeagueID     string `json:"league_id"`
	Name         string `json:"name"`
	Season       string `json:"season"`
	Status       string `json:"status"`
	TotalRosters int    `json:"total_rosters"`
}

type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
}

type LeagueUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

// Owner joins a league member with their roster.
type Owner struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	TeamName    string   `json:"team_name,omitempty"`
	RosterID    int      `json:"roster_id"`
	Players     []string `json:"players"`
}

type Client interface {
	GetUser(ctx context.Context, username string) (*User, error)
	GetLeagues(ctx context.Context, userID, season string) ([]League, error)
	GetRosters(ctx context.Context, leagueID string) ([]Roster, error)
	GetLeagueUsers(ctx context.Context, leagueID string) ([]LeagueUser, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sleeper GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed == "" || trimmed == "null" {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("sleeper GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/user/"+url.PathEscape(username), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) GetLeagues(ctx context.Context, userID, season string) ([]League, error) {
	var leagues []League
	path := fmt.Sprintf("/user/%s/leagues/nfl/%s", url.PathEscape(userID), url.PathEscape(season))
	if err := c.getJSON(ctx, path, &leagues); err != nil {
		return nil, err
	}
	return leagues, nil
}

func (c *HTTPClient) GetRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var rosters []Roster
	if err := c.getJSON(ctx, "/league/"+url.PathEscape(leagueID)+"/rosters", &rosters); err != nil {
		return nil, err
	}
	return rosters, nil
}

func (c *HTTPClient) GetLeagueUsers(ctx context.Context, leagueID string) ([]LeagueUser, error) {
	var users []LeagueUser
	if err := c.getJSON(ctx, "/league/"+url.PathEscape(leagueID)+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// LeagueOwners returns every rostered owner in a league, ordered by roster
// id. Rosters without an owner are skipped.
func LeagueOwners(ctx context.Context, c Client, leagueID string) ([]Owner, error) {
	rosters, err := c.GetRosters(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("rosters: %w", err)
	}
	users, err := c.GetLeagueUsers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league users: %w", err)
	}
	byID := make(map[string]LeagueUser, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	owners := make([]Owner, 0, len(rosters))
	for _, r := range rosters {
		if r.OwnerID == "" {
			continue
		}
		u := byID[r.OwnerID]
		owners = append(owners, Owner{
			UserID:      r.OwnerID,
			DisplayName: u.DisplayName,
			TeamName:    u.Metadata.TeamName,
			RosterID:    r.RosterID,
			Players:     r.Players,
		})
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].RosterID < owners[j].RosterID })
	return owners, nil
}

// FindOwner returns the owner with userID, or ErrNotFound.
func FindOwner(owners []Owner, userID string) (*Owner, error) {
	for i := range owners {
		if owners[i].UserID == userID {
			return &owners[i], nil
		}
	}
	return nil, fmt.Errorf("%w: owner %s", ErrNotFound, userID)
}

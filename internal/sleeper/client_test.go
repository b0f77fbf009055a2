package sleeper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/user/alice", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user_id": "100", "username": "alice", "display_name": "Alice"}`))
	})
	mux.HandleFunc("/v1/user/ghost", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	mux.HandleFunc("/v1/user/100/leagues/nfl/2025", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"league_id": "L1", "name": "Dynasty", "season": "2025", "total_rosters": 12}]`))
	})
	mux.HandleFunc("/v1/league/L1/rosters", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"roster_id": 2, "owner_id": "200", "players": ["p3", "p4"]},
			{"roster_id": 1, "owner_id": "100", "players": ["p1", "p2"]},
			{"roster_id": 3, "owner_id": null, "players": []}
		]`))
	})
	mux.HandleFunc("/v1/league/L1/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"user_id": "100", "display_name": "Alice", "metadata": {"team_name": "Hawks"}},
			{"user_id": "200", "display_name": "Bob", "metadata": {}}
		]`))
	})
	mux.HandleFunc("/v1/league/broken/rosters", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetUser(t *testing.T) {
	c := NewHTTPClient(newTestServer(t).URL + "/v1/")

	u, err := c.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", u.UserID)
	assert.Equal(t, "Alice", u.DisplayName)

	_, err = c.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLeagues(t *testing.T) {
	c := NewHTTPClient(newTestServer(t).URL + "/v1")

	leagues, err := c.GetLeagues(context.Background(), "100", "2025")
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, "Dynasty", leagues[0].Name)
	assert.Equal(t, 12, leagues[0].TotalRosters)
}

func TestLeagueOwners(t *testing.T) {
	c := NewHTTPClient(newTestServer(t).URL + "/v1")

	owners, err := LeagueOwners(context.Background(), c, "L1")
	require.NoError(t, err)
	require.Len(t, owners, 2)

	assert.Equal(t, "100", owners[0].UserID)
	assert.Equal(t, "Hawks", owners[0].TeamName)
	assert.Equal(t, []string{"p1", "p2"}, owners[0].Players)
	assert.Equal(t, "Bob", owners[1].DisplayName)

	o, err := FindOwner(owners, "200")
	require.NoError(t, err)
	assert.Equal(t, 2, o.RosterID)

	_, err = FindOwner(owners, "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpstreamError(t *testing.T) {
	c := NewHTTPClient(newTestServer(t).URL + "/v1")

	_, err := LeagueOwners(context.Background(), c, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "502")
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Barter/internal/rating"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const matchupColumns = `user_id, league_id, lm_user_id,
	username, league_name, lm_username, players,
	user_ranks, lm_ranks, user_votes, lm_votes,
	created_at, updated_at`

func (s *PostgresStore) UpsertMatchup(ctx context.Context, m *Matchup) error {
	if err := m.Key.Validate(); err != nil {
		return err
	}
	playersJSON, err := json.Marshal(m.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO barter_matchups (user_id, league_id, lm_user_id,
			username, league_name, lm_username, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, league_id, lm_user_id) DO UPDATE SET
			username = EXCLUDED.username,
			league_name = EXCLUDED.league_name,
			lm_username = EXCLUDED.lm_username,
			players = EXCLUDED.players,
			user_ranks = '[]', lm_ranks = '[]',
			user_votes = '[]', lm_votes = '[]',
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		m.Key.UserID, m.Key.LeagueID, m.Key.LMUserID,
		m.Username, m.LeagueName, m.LMUsername, playersJSON,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return err
	}
	m.UserRanks, m.LMRanks, m.UserVotes, m.LMVotes = nil, nil, nil, nil
	return nil
}

func (s *PostgresStore) GetMatchup(ctx context.Context, key MatchupKey) (*Matchup, error) {
	m, err := scanMatchup(s.pool.QueryRow(ctx, `
		SELECT `+matchupColumns+`
		FROM barter_matchups
		WHERE user_id = $1 AND league_id = $2 AND lm_user_id = $3`,
		key.UserID, key.LeagueID, key.LMUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) ListMatchups(ctx context.Context, filter MatchupFilter) ([]*Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM barter_matchups WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.UserID != "" {
		n++
		query += fmt.Sprintf(" AND user_id = $%d", n)
		args = append(args, filter.UserID)
	}
	if filter.LeagueID != "" {
		n++
		query += fmt.Sprintf(" AND league_id = $%d", n)
		args = append(args, filter.LeagueID)
	}
	query += " ORDER BY updated_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Matchup
	for rows.Next() {
		m, err := scanMatchup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveRanks(ctx context.Context, key MatchupKey, side Side, ranks []rating.RankedScore, votes []rating.PairwiseOutcome) error {
	ranksCol, votesCol := "user_ranks", "user_votes"
	switch side {
	case SideUser:
	case SideLeaguemate:
		ranksCol, votesCol = "lm_ranks", "lm_votes"
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	ranksJSON, err := json.Marshal(orEmpty(ranks))
	if err != nil {
		return fmt.Errorf("encode ranks: %w", err)
	}
	votesJSON, err := json.Marshal(orEmpty(votes))
	if err != nil {
		return fmt.Errorf("encode votes: %w", err)
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE barter_matchups SET %s = $4, %s = $5, updated_at = NOW()
		WHERE user_id = $1 AND league_id = $2 AND lm_user_id = $3`, ranksCol, votesCol),
		key.UserID, key.LeagueID, key.LMUserID, ranksJSON, votesJSON,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrMatchupNotFound, key)
	}
	return nil
}

func (s *PostgresStore) CreateMatchupEvent(ctx context.Context, e *MatchupEvent) error {
	payloadJSON, _ := json.Marshal(e.Payload)
	return s.pool.QueryRow(ctx, `
		INSERT INTO barter_matchup_events (matchup_key, event, side, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.MatchupKey, e.Event, string(e.Side), payloadJSON,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *PostgresStore) GetMatchupEvents(ctx context.Context, key MatchupKey) ([]*MatchupEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, matchup_key, event, side, payload, created_at
		FROM barter_matchup_events WHERE matchup_key = $1
		ORDER BY created_at ASC`, key.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*MatchupEvent
	for rows.Next() {
		e := &MatchupEvent{}
		var side string
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &e.MatchupKey, &e.Event, &side, &payloadJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Side = Side(side)
		if payloadJSON != nil {
			_ = json.Unmarshal(payloadJSON, &e.Payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanMatchup(row pgx.Row) (*Matchup, error) {
	m := &Matchup{}
	var players, userRanks, lmRanks, userVotes, lmVotes []byte
	if err := row.Scan(
		&m.Key.UserID, &m.Key.LeagueID, &m.Key.LMUserID,
		&m.Username, &m.LeagueName, &m.LMUsername, &players,
		&userRanks, &lmRanks, &userVotes, &lmVotes,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"players", players, &m.Players},
		{"user_ranks", userRanks, &m.UserRanks},
		{"lm_ranks", lmRanks, &m.LMRanks},
		{"user_votes", userVotes, &m.UserVotes},
		{"lm_votes", lmVotes, &m.LMVotes},
	} {
		if col.raw == nil {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	return m, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/streak"
)

// store handles all database operations for the ledger. It holds no mutex:
// concurrent writers are serialized by the version column on streak_states,
// not by in-process locking, so multiple processes can share one backend.
type store struct {
	db *sql.DB
}

// New creates a new LedgerStore backed by the given database handle.
func New(db *sql.DB) LedgerStore {
	return &store{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func (s *store) Append(ctx context.Context, outcome Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_outcomes (id, player_id, group_id, season_id, won, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, outcome.ID, outcome.PlayerID, outcome.GroupID, outcome.SeasonID, outcome.Won, outcome.OccurredAt)
	if err != nil {
		log.Error("Failed to append outcome", "error", err, "outcomeID", outcome.ID)
		return storageErr("append outcome", err)
	}
	return nil
}

func (s *store) CurrentState(ctx context.Context, key TripleKey) (streak.State, int64, error) {
	var state streak.State
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT current_streak, best_streak, version
		FROM streak_states
		WHERE player_id = ? AND group_id = ? AND season_id = ?
	`, key.PlayerID, key.GroupID, key.SeasonID).Scan(&state.Current, &state.Best, &version)
	if err == sql.ErrNoRows {
		// No history yet is not an error; the zero state is the answer.
		return streak.State{}, 0, nil
	}
	if err != nil {
		log.Error("Failed to read streak state", "error", err, "playerID", key.PlayerID, "groupID", key.GroupID)
		return streak.State{}, 0, storageErr("read streak state", err)
	}
	return state, version, nil
}

// WriteCurrentState is a single-statement compare-and-set. The insert covers
// a fresh triple (expectedVersion 0); on conflict the update only fires when
// the stored version still matches, so a racing writer sees zero rows
// affected and gets ErrConflict.
func (s *store) WriteCurrentState(ctx context.Context, key TripleKey, state streak.State, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO streak_states (player_id, group_id, season_id, current_streak, best_streak, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, group_id, season_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			best_streak    = excluded.best_streak,
			version        = excluded.version
		WHERE streak_states.version = excluded.version - 1
	`, key.PlayerID, key.GroupID, key.SeasonID, state.Current, state.Best, expectedVersion+1)
	if err != nil {
		log.Error("Failed to write streak state", "error", err, "playerID", key.PlayerID, "groupID", key.GroupID)
		return storageErr("write streak state", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("write streak state", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *store) OverwriteState(ctx context.Context, key TripleKey, state streak.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streak_states (player_id, group_id, season_id, current_streak, best_streak, version)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(player_id, group_id, season_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			best_streak    = excluded.best_streak,
			version        = streak_states.version + 1
	`, key.PlayerID, key.GroupID, key.SeasonID, state.Current, state.Best)
	if err != nil {
		log.Error("Failed to overwrite streak state", "error", err, "playerID", key.PlayerID, "groupID", key.GroupID)
		return storageErr("overwrite streak state", err)
	}
	return nil
}

func (s *store) ListOutcomes(ctx context.Context, groupID string, since, until time.Time) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, group_id, season_id, won, occurred_at
		FROM match_outcomes
		WHERE group_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at ASC, id ASC
	`, groupID, since.Unix(), until.Unix())
	if err != nil {
		log.Error("Failed to list outcomes", "error", err, "groupID", groupID)
		return nil, storageErr("list outcomes", err)
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

func (s *store) ListTripleOutcomes(ctx context.Context, key TripleKey) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, group_id, season_id, won, occurred_at
		FROM match_outcomes
		WHERE player_id = ? AND group_id = ? AND season_id = ?
		ORDER BY occurred_at ASC, id ASC
	`, key.PlayerID, key.GroupID, key.SeasonID)
	if err != nil {
		log.Error("Failed to list triple outcomes", "error", err, "playerID", key.PlayerID, "groupID", key.GroupID)
		return nil, storageErr("list triple outcomes", err)
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

func scanOutcomes(rows *sql.Rows) ([]Outcome, error) {
	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.PlayerID, &o.GroupID, &o.SeasonID, &o.Won, &o.OccurredAt); err != nil {
			log.Error("Failed to scan outcome row", "error", err)
			return nil, storageErr("scan outcome", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate outcomes", err)
	}
	return outcomes, nil
}

func (s *store) GroupRecords(ctx context.Context, groupID, seasonID string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			ss.player_id,
			COALESCE(p.name, ss.player_id),
			ss.current_streak,
			ss.best_streak,
			COALESCE(SUM(CASE WHEN mo.won = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN mo.won = 0 THEN 1 ELSE 0 END), 0)
		FROM streak_states ss
		LEFT JOIN players p ON p.id = ss.player_id
		LEFT JOIN match_outcomes mo
			ON mo.player_id = ss.player_id
			AND mo.group_id = ss.group_id
			AND mo.season_id = ss.season_id
		WHERE ss.group_id = ? AND ss.season_id = ?
		GROUP BY ss.player_id, p.name, ss.current_streak, ss.best_streak
		ORDER BY ss.current_streak DESC, 5 DESC, ss.player_id ASC
	`, groupID, seasonID)
	if err != nil {
		log.Error("Failed to query group records", "error", err, "groupID", groupID)
		return nil, storageErr("group records", err)
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		if err := rows.Scan(&rec.PlayerID, &rec.PlayerName, &rec.Streak.Current, &rec.Streak.Best, &rec.Wins, &rec.Losses); err != nil {
			log.Error("Failed to scan record row", "error", err)
			return nil, storageErr("scan record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate records", err)
	}
	return records, nil
}

func (s *store) UpsertPlayer(ctx context.Context, player PlayerInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, player.ID, player.Name)
	if err != nil {
		log.Error("Failed to upsert player", "error", err, "playerID", player.ID)
		return storageErr("upsert player", err)
	}
	return nil
}

func (s *store) GetPlayers(ctx context.Context, playerIDs []string) ([]PlayerInfo, error) {
	if len(playerIDs) == 0 {
		return []PlayerInfo{}, nil
	}
	placeholders := strings.Repeat("?,", len(playerIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, COALESCE(name, '') FROM players WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		log.Error("Failed to query players", "error", err)
		return nil, storageErr("get players", err)
	}
	defer rows.Close()

	players := []PlayerInfo{}
	for rows.Next() {
		var p PlayerInfo
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) UpsertGroup(ctx context.Context, group Group) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (id, slug) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET slug = excluded.slug
	`, group.ID, group.Slug)
	if err != nil {
		log.Error("Failed to upsert group", "error", err, "groupID", group.ID)
		return storageErr("upsert group", err)
	}
	return nil
}

func (s *store) GroupBySlug(ctx context.Context, slug string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `SELECT id, slug FROM groups WHERE slug = ?`, slug).Scan(&g.ID, &g.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to query group by slug", "error", err, "slug", slug)
		return nil, storageErr("group by slug", err)
	}
	return &g, nil
}

func (s *store) GroupByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `SELECT id, slug FROM groups WHERE id = ?`, id).Scan(&g.ID, &g.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to query group by id", "error", err, "groupID", id)
		return nil, storageErr("group by id", err)
	}
	return &g, nil
}

func (s *store) ActiveSeason(ctx context.Context, groupID string) (string, error) {
	var seasonID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM seasons WHERE group_id = ? AND active = 1`, groupID).Scan(&seasonID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		log.Error("Failed to query active season", "error", err, "groupID", groupID)
		return "", storageErr("active season", err)
	}
	return seasonID, nil
}

func (s *store) SetActiveSeason(ctx context.Context, season Season) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("set active season", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE seasons SET active = 0 WHERE group_id = ?`, season.GroupID); err != nil {
		log.Error("Failed to deactivate seasons", "error", err, "groupID", season.GroupID)
		return storageErr("set active season", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO seasons (id, group_id, active) VALUES (?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET active = 1
	`, season.ID, season.GroupID); err != nil {
		log.Error("Failed to activate season", "error", err, "seasonID", season.ID)
		return storageErr("set active season", err)
	}
	return tx.Commit()
}

func (s *store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("clear store", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"match_outcomes", "streak_states", "seasons", "groups", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			log.Error("Failed to clear table", "error", err, "table", table)
			return storageErr("clear store", err)
		}
	}
	return tx.Commit()
}

package ledger

import (
	"errors"

	"github.com/oddmundk/streakbot/internal/streak"
)

var (
	// ErrStorageUnavailable wraps any failure to reach the durable backend.
	// It is always surfaced to the caller, never swallowed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConflict is returned by WriteCurrentState when another writer
	// updated the row since it was read.
	ErrConflict = errors.New("streak state changed concurrently")

	// ErrRankingContention is returned by the writer after exhausting its
	// compare-and-set retries. The outcome itself is already durably
	// recorded; only the derived state lags until a rebuild.
	ErrRankingContention = errors.New("ranking update contention")
)

// TripleKey identifies one derived streak state. An empty SeasonID means the
// outcome was recorded outside any season.
type TripleKey struct {
	PlayerID string
	GroupID  string
	SeasonID string
}

// Outcome is one immutable reported result. Rows are append-only; the core
// has no update or delete path for them.
type Outcome struct {
	ID         string `json:"id"`
	PlayerID   string `json:"player_id"`
	GroupID    string `json:"group_id"`
	SeasonID   string `json:"season_id,omitempty"`
	Won        bool   `json:"won"`
	OccurredAt int64  `json:"occurred_at"`
}

// Triple returns the derived-state key for this outcome.
func (o Outcome) Triple() TripleKey {
	return TripleKey{PlayerID: o.PlayerID, GroupID: o.GroupID, SeasonID: o.SeasonID}
}

// PlayerRecord is one row of a group's record table.
type PlayerRecord struct {
	PlayerID   string       `json:"player_id"`
	PlayerName string       `json:"player_name"`
	Streak     streak.State `json:"streak"`
	Wins       int          `json:"wins"`
	Losses     int          `json:"losses"`
}

// PlayerInfo represents a player in the store.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a scoping community. All ledger state is partitioned by group.
type Group struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Season is an optional sub-partition of a group's history.
type Season struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Active  bool   `json:"active"`
}

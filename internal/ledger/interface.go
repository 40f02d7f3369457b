package ledger

import (
	"context"
	"time"

	"github.com/oddmundk/streakbot/internal/streak"
)

// LedgerStore defines the durable surface of the match record ledger.
//
// Consistency contract: WriteCurrentState is a compare-and-set keyed on the
// version returned by CurrentState. Implementations must never rely on
// in-process locking for correctness; multiple writer processes may share
// the same backend.
type LedgerStore interface {
	// Append durably stores one outcome. Failures wrap ErrStorageUnavailable.
	Append(ctx context.Context, outcome Outcome) error
	// CurrentState returns the derived state and its CAS version for a
	// triple. An unknown triple yields the zero state and version 0.
	CurrentState(ctx context.Context, key TripleKey) (streak.State, int64, error)
	// WriteCurrentState installs state at expectedVersion+1, failing with
	// ErrConflict if the stored version no longer equals expectedVersion.
	WriteCurrentState(ctx context.Context, key TripleKey, state streak.State, expectedVersion int64) error
	// OverwriteState unconditionally replaces the derived state, bumping the
	// version. Used by the rebuild-from-history repair path.
	OverwriteState(ctx context.Context, key TripleKey, state streak.State) error

	// ListOutcomes returns a group's outcomes with occurred_at in
	// [since, until), ascending. The window is re-runnable.
	ListOutcomes(ctx context.Context, groupID string, since, until time.Time) ([]Outcome, error)
	// ListTripleOutcomes returns the full ordered history of one triple.
	ListTripleOutcomes(ctx context.Context, key TripleKey) ([]Outcome, error)
	// GroupRecords returns the per-player record table for one group and
	// season partition, best streak runs first.
	GroupRecords(ctx context.Context, groupID, seasonID string) ([]PlayerRecord, error)

	UpsertPlayer(ctx context.Context, player PlayerInfo) error
	GetPlayers(ctx context.Context, playerIDs []string) ([]PlayerInfo, error)
	UpsertGroup(ctx context.Context, group Group) error
	GroupBySlug(ctx context.Context, slug string) (*Group, error)
	GroupByID(ctx context.Context, id string) (*Group, error)
	// ActiveSeason returns the id of the group's active season, or "" when
	// the group has none.
	ActiveSeason(ctx context.Context, groupID string) (string, error)
	// SetActiveSeason deactivates any current season for the group and
	// activates the given one, creating it if needed.
	SetActiveSeason(ctx context.Context, season Season) error

	Clear(ctx context.Context) error
}

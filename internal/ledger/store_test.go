package ledger_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/oddmundk/streakbot/internal/database"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (ledger.LedgerStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := ledger.New(db)
	teardown := func() {
		dbTeardown()
		db.Close()
	}

	return store, db, teardown
}

func TestAppendAndListTripleOutcomes(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1", SeasonID: ""}
	base := time.Now().Unix()
	for i, won := range []bool{true, true, false} {
		err := store.Append(ctx, ledger.Outcome{
			ID: fmt.Sprintf("o%d", i), PlayerID: "p1", GroupID: "g1",
			Won: won, OccurredAt: base + int64(i),
		})
		require.NoError(t, err)
	}

	// An outcome for another player must not leak into the triple's history.
	err := store.Append(ctx, ledger.Outcome{ID: "other", PlayerID: "p2", GroupID: "g1", Won: true, OccurredAt: base})
	require.NoError(t, err)

	outcomes, err := store.ListTripleOutcomes(ctx, key)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Won)
	assert.True(t, outcomes[1].Won)
	assert.False(t, outcomes[2].Won)
}

func TestCurrentStateUnknownTriple(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	state, version, err := store.CurrentState(context.Background(), ledger.TripleKey{PlayerID: "nobody", GroupID: "nowhere"})
	require.NoError(t, err)
	assert.Equal(t, streak.State{}, state)
	assert.Equal(t, int64(0), version)
}

func TestWriteCurrentStateCAS(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}

	t.Run("fresh triple installs at version 1", func(t *testing.T) {
		err := store.WriteCurrentState(ctx, key, streak.State{Current: 1, Best: 1}, 0)
		require.NoError(t, err)

		state, version, err := store.CurrentState(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, streak.State{Current: 1, Best: 1}, state)
		assert.Equal(t, int64(1), version)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		err := store.WriteCurrentState(ctx, key, streak.State{Current: 2, Best: 2}, 0)
		assert.ErrorIs(t, err, ledger.ErrConflict)

		// The losing write must not have touched the row.
		state, version, err := store.CurrentState(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, streak.State{Current: 1, Best: 1}, state)
		assert.Equal(t, int64(1), version)
	})

	t.Run("matching version advances", func(t *testing.T) {
		err := store.WriteCurrentState(ctx, key, streak.State{Current: 2, Best: 2}, 1)
		require.NoError(t, err)

		state, version, err := store.CurrentState(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, streak.State{Current: 2, Best: 2}, state)
		assert.Equal(t, int64(2), version)
	})
}

func TestOverwriteStateBumpsVersion(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}

	require.NoError(t, store.WriteCurrentState(ctx, key, streak.State{Current: 3, Best: 3}, 0))
	require.NoError(t, store.OverwriteState(ctx, key, streak.State{Current: -1, Best: 3}))

	state, version, err := store.CurrentState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: -1, Best: 3}, state)
	assert.Equal(t, int64(2), version, "overwrite must invalidate in-flight CAS writers")
}

func TestListOutcomesWindow(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	since := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 0, 7)

	insert := func(id string, at time.Time, won bool) {
		require.NoError(t, store.Append(ctx, ledger.Outcome{
			ID: id, PlayerID: "p1", GroupID: "g1", Won: won, OccurredAt: at.Unix(),
		}))
	}
	insert("before", since.Add(-time.Second), true)
	insert("start", since, true)
	insert("mid", since.AddDate(0, 0, 3), false)
	insert("end", until, true) // until is exclusive
	insert("after", until.Add(time.Hour), true)

	outcomes, err := store.ListOutcomes(ctx, "g1", since, until)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "start", outcomes[0].ID)
	assert.Equal(t, "mid", outcomes[1].ID)
}

func TestGroupRecords(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.UpsertPlayer(ctx, ledger.PlayerInfo{ID: "p1", Name: "Ada"}))
	require.NoError(t, store.UpsertPlayer(ctx, ledger.PlayerInfo{ID: "p2", Name: "Ben"}))

	now := time.Now().Unix()
	outcomes := []ledger.Outcome{
		{ID: "a1", PlayerID: "p1", GroupID: "g1", Won: true, OccurredAt: now},
		{ID: "a2", PlayerID: "p1", GroupID: "g1", Won: true, OccurredAt: now + 1},
		{ID: "b1", PlayerID: "p2", GroupID: "g1", Won: false, OccurredAt: now},
		{ID: "c1", PlayerID: "p1", GroupID: "g2", Won: false, OccurredAt: now}, // other group
	}
	for _, o := range outcomes {
		require.NoError(t, store.Append(ctx, o))
	}
	require.NoError(t, store.WriteCurrentState(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}, streak.State{Current: 2, Best: 2}, 0))
	require.NoError(t, store.WriteCurrentState(ctx, ledger.TripleKey{PlayerID: "p2", GroupID: "g1"}, streak.State{Current: -1, Best: 0}, 0))

	records, err := store.GroupRecords(ctx, "g1", "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Ada", records[0].PlayerName)
	assert.Equal(t, 2, records[0].Streak.Current)
	assert.Equal(t, 2, records[0].Wins)
	assert.Equal(t, 0, records[0].Losses)

	assert.Equal(t, "Ben", records[1].PlayerName)
	assert.Equal(t, -1, records[1].Streak.Current)
	assert.Equal(t, 0, records[1].Wins)
	assert.Equal(t, 1, records[1].Losses)
}

func TestGroupRecordsSeasonPartition(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.UpsertGroup(ctx, ledger.Group{ID: "g1", Slug: "padel"}))
	require.NoError(t, store.WriteCurrentState(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1", SeasonID: ""}, streak.State{Current: 5, Best: 5}, 0))
	require.NoError(t, store.WriteCurrentState(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1", SeasonID: "s1"}, streak.State{Current: 1, Best: 1}, 0))

	noSeason, err := store.GroupRecords(ctx, "g1", "")
	require.NoError(t, err)
	require.Len(t, noSeason, 1)
	assert.Equal(t, 5, noSeason[0].Streak.Current)

	season, err := store.GroupRecords(ctx, "g1", "s1")
	require.NoError(t, err)
	require.Len(t, season, 1)
	assert.Equal(t, 1, season[0].Streak.Current)
}

func TestGroupsAndSeasons(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.UpsertGroup(ctx, ledger.Group{ID: "g1", Slug: "padel"}))

	t.Run("lookup by slug and id", func(t *testing.T) {
		g, err := store.GroupBySlug(ctx, "padel")
		require.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, "g1", g.ID)

		g, err = store.GroupByID(ctx, "g1")
		require.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, "padel", g.Slug)

		g, err = store.GroupBySlug(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, g)
	})

	t.Run("no active season yields empty id", func(t *testing.T) {
		seasonID, err := store.ActiveSeason(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "", seasonID)
	})

	t.Run("switching active season deactivates the old one", func(t *testing.T) {
		require.NoError(t, store.SetActiveSeason(ctx, ledger.Season{ID: "s1", GroupID: "g1"}))
		seasonID, err := store.ActiveSeason(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "s1", seasonID)

		require.NoError(t, store.SetActiveSeason(ctx, ledger.Season{ID: "s2", GroupID: "g1"}))
		seasonID, err = store.ActiveSeason(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "s2", seasonID)
	})
}

func TestClear(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.UpsertPlayer(ctx, ledger.PlayerInfo{ID: "p1", Name: "Ada"}))
	require.NoError(t, store.Append(ctx, ledger.Outcome{ID: "o1", PlayerID: "p1", GroupID: "g1", Won: true, OccurredAt: time.Now().Unix()}))
	require.NoError(t, store.WriteCurrentState(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}, streak.State{Current: 1, Best: 1}, 0))

	require.NoError(t, store.Clear(ctx))

	outcomes, err := store.ListTripleOutcomes(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1"})
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	_, version, err := store.CurrentState(ctx, ledger.TripleKey{PlayerID: "p1", GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

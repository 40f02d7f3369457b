package digest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oddmundk/streakbot/internal/digest"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekly(t *testing.T) {
	store := ledger.NewMockStore()
	metricsSvc := metrics.NewMock()
	agg := digest.New(store, metricsSvc)
	ctx := context.Background()

	now := time.Now()
	since := now.AddDate(0, 0, -7)

	seed := func(id, playerID string, at time.Time, won bool) {
		require.NoError(t, store.Append(ctx, ledger.Outcome{
			ID: id, PlayerID: playerID, GroupID: "g1", Won: won, OccurredAt: at.Unix(),
		}))
	}
	seed("old", "p1", since.Add(-time.Hour), true) // before the window
	seed("a1", "p1", since.Add(time.Hour), true)
	seed("a2", "p1", now.Add(-time.Hour), true)
	seed("a3", "p1", now.Add(-time.Minute), false)
	seed("b1", "p2", now.Add(-2*time.Hour), false)

	// p3 played in another group; group digests must not mix.
	require.NoError(t, store.Append(ctx, ledger.Outcome{
		ID: "c1", PlayerID: "p3", GroupID: "g2", Won: true, OccurredAt: now.Add(-time.Hour).Unix(),
	}))

	stats, err := agg.Weekly(ctx, "g1", since)
	require.NoError(t, err)

	require.Len(t, stats, 2)
	assert.Equal(t, digest.Tally{Wins: 2, Losses: 1}, stats["p1"])
	assert.Equal(t, digest.Tally{Wins: 0, Losses: 1}, stats["p2"])
	assert.NotContains(t, stats, "p3")

	assert.Equal(t, 1, metricsSvc.DigestsServed())
}

func TestWeeklyEmptyWindow(t *testing.T) {
	store := ledger.NewMockStore()
	agg := digest.New(store, metrics.NewMock())

	stats, err := agg.Weekly(context.Background(), "g1", time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, stats, "players with no outcomes in the window are absent, not zero-filled")
}

func TestWeeklyStoreError(t *testing.T) {
	store := ledger.NewMockStore()
	store.ListErr = errors.New("storage down")
	metricsSvc := metrics.NewMock()
	agg := digest.New(store, metricsSvc)

	_, err := agg.Weekly(context.Background(), "g1", time.Now().AddDate(0, 0, -7))
	assert.Error(t, err)
	assert.Equal(t, 0, metricsSvc.DigestsServed())
}

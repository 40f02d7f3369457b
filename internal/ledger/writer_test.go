package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/pubsub"
	"github.com/oddmundk/streakbot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcome(t *testing.T) {
	store := ledger.NewMockStore()
	metricsSvc := metrics.NewMock()
	pubsubClient := pubsub.NewMock("TEST")
	writer := ledger.NewWriter(store, metricsSvc, pubsubClient)
	ctx := context.Background()
	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}

	state, err := writer.RecordOutcome(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: 1, Best: 1}, state)

	state, err = writer.RecordOutcome(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: 2, Best: 2}, state)

	state, err = writer.RecordOutcome(ctx, key, false)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: -1, Best: 2}, state)

	assert.Len(t, store.Outcomes(), 3)
	assert.Equal(t, 3, metricsSvc.OutcomesRecorded())

	require.Len(t, pubsubClient.SendMessageCalls, 3)
	assert.Equal(t, string(pubsub.EventOutcomeRecorded), pubsubClient.SendMessageCalls[2].Topic)
	event, ok := pubsubClient.SendMessageCalls[2].Data.(ledger.OutcomeRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "p1", event.PlayerID)
	assert.False(t, event.Won)
	assert.Equal(t, -1, event.Current)
	assert.Equal(t, 2, event.Best)
}

func TestRecordOutcomeAppendFailure(t *testing.T) {
	store := ledger.NewMockStore()
	store.AppendErr = fmt.Errorf("disk on fire: %w", ledger.ErrStorageUnavailable)
	writer := ledger.NewWriter(store, metrics.NewMock(), nil)

	_, err := writer.RecordOutcome(context.Background(), ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}, true)
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	assert.Empty(t, store.Outcomes())
}

func TestRecordOutcomeContentionExhaustion(t *testing.T) {
	store := ledger.NewMockStore()
	store.WriteErr = ledger.ErrConflict // every CAS attempt loses
	metricsSvc := metrics.NewMock()
	pubsubClient := pubsub.NewMock("TEST")
	writer := ledger.NewWriter(store, metricsSvc, pubsubClient)

	_, err := writer.RecordOutcome(context.Background(), ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}, true)
	assert.ErrorIs(t, err, ledger.ErrRankingContention)

	// The outcome itself is durable even though the ranking update failed.
	assert.Len(t, store.Outcomes(), 1)
	assert.Equal(t, 5, metricsSvc.StateConflicts())
	assert.Equal(t, 1, metricsSvc.ContentionExhausted())
	assert.Empty(t, pubsubClient.SendMessageCalls, "no event for a stale state")
}

func TestRecordOutcomeConcurrent(t *testing.T) {
	store := ledger.NewMockStore()
	writer := ledger.NewWriter(store, metrics.NewMock(), nil)
	ctx := context.Background()
	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = writer.RecordOutcome(ctx, key, true)
		}(i)
	}
	wg.Wait()

	// Every report lands in the history no matter how the CAS races resolved.
	require.Len(t, store.Outcomes(), n)
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ledger.ErrRankingContention)
		}
	}

	// Replaying the full history repairs any drift left by exhausted retries.
	state, err := writer.Rebuild(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: n, Best: n}, state)
}

func TestRebuild(t *testing.T) {
	store := ledger.NewMockStore()
	writer := ledger.NewWriter(store, metrics.NewMock(), nil)
	ctx := context.Background()
	key := ledger.TripleKey{PlayerID: "p1", GroupID: "g1"}

	for i, won := range []bool{true, true, false, true, true, true} {
		require.NoError(t, store.Append(ctx, ledger.Outcome{
			ID: fmt.Sprintf("o%d", i), PlayerID: key.PlayerID, GroupID: key.GroupID,
			Won: won, OccurredAt: int64(1000 + i),
		}))
	}
	// Seed a drifted state; Rebuild must replace it wholesale.
	require.NoError(t, store.OverwriteState(ctx, key, streak.State{Current: -7, Best: 1}))

	state, err := writer.Rebuild(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, streak.State{Current: 3, Best: 3}, state)

	stored, _, err := store.CurrentState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, state, stored)
}

func TestRebuildEmptyHistory(t *testing.T) {
	store := ledger.NewMockStore()
	writer := ledger.NewWriter(store, metrics.NewMock(), nil)

	state, err := writer.Rebuild(context.Background(), ledger.TripleKey{PlayerID: "p1", GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, streak.State{}, state)
}

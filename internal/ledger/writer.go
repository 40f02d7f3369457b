package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/pubsub"
	"github.com/oddmundk/streakbot/internal/streak"
	"github.com/sethvargo/go-retry"
)

// maxWriteAttempts bounds the optimistic-concurrency loop: one initial
// attempt plus retries on conflict.
const maxWriteAttempts = 5

// OutcomeRecordedEvent is the message published after a successful record.
type OutcomeRecordedEvent struct {
	OutcomeID string `msgpack:"outcome_id"`
	PlayerID  string `msgpack:"player_id"`
	GroupID   string `msgpack:"group_id"`
	SeasonID  string `msgpack:"season_id"`
	Won       bool   `msgpack:"won"`
	Current   int    `msgpack:"current_streak"`
	Best      int    `msgpack:"best_streak"`
}

// Writer is the only mutator of derived streak state. It applies one
// reported outcome as an append plus an optimistic read-compute-write cycle.
type Writer struct {
	store   LedgerStore
	metrics metrics.Metrics
	pubsub  pubsub.PubSubClient
}

// NewWriter creates a Writer. The pubsub client may be nil; recording then
// skips event publication.
func NewWriter(store LedgerStore, metricsSvc metrics.Metrics, pubsubClient pubsub.PubSubClient) *Writer {
	return &Writer{
		store:   store,
		metrics: metricsSvc,
		pubsub:  pubsubClient,
	}
}

// RecordOutcome durably appends the outcome, then installs the new derived
// state under compare-and-set. The append happens exactly once and is never
// rolled back: when the CAS loop exhausts its attempts the call fails with
// ErrRankingContention but the match itself is recorded, and a Rebuild can
// recover the derived state from history at any time.
//
// No lock is held across the storage calls; a conflicting writer simply
// forces a re-read of the state it installed.
func (w *Writer) RecordOutcome(ctx context.Context, key TripleKey, won bool) (streak.State, error) {
	outcome := Outcome{
		ID:         uuid.NewString(),
		PlayerID:   key.PlayerID,
		GroupID:    key.GroupID,
		SeasonID:   key.SeasonID,
		Won:        won,
		OccurredAt: time.Now().Unix(),
	}
	if err := w.store.Append(ctx, outcome); err != nil {
		return streak.State{}, err
	}
	w.metrics.IncOutcomesRecorded()

	var next streak.State
	backoff := retry.WithMaxRetries(maxWriteAttempts-1, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		prior, version, err := w.store.CurrentState(ctx, key)
		if err != nil {
			return err
		}
		next = streak.Update(prior, won)
		if err := w.store.WriteCurrentState(ctx, key, next, version); err != nil {
			if errors.Is(err, ErrConflict) {
				w.metrics.IncStateConflicts()
				log.Debug("Streak state conflict, retrying", "playerID", key.PlayerID, "groupID", key.GroupID)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			w.metrics.IncContentionExhausted()
			log.Warn("Ranking update contention, outcome recorded but state is stale",
				"playerID", key.PlayerID, "groupID", key.GroupID, "outcomeID", outcome.ID)
			return streak.State{}, fmt.Errorf("record outcome %s: %w", outcome.ID, ErrRankingContention)
		}
		return streak.State{}, err
	}

	w.publish(outcome, next)
	return next, nil
}

func (w *Writer) publish(outcome Outcome, state streak.State) {
	if w.pubsub == nil {
		return
	}
	event := OutcomeRecordedEvent{
		OutcomeID: outcome.ID,
		PlayerID:  outcome.PlayerID,
		GroupID:   outcome.GroupID,
		SeasonID:  outcome.SeasonID,
		Won:       outcome.Won,
		Current:   state.Current,
		Best:      state.Best,
	}
	if err := w.pubsub.SendMessage(pubsub.EventOutcomeRecorded, event); err != nil {
		// Publication is best-effort; the ledger is already consistent.
		log.Error("Failed to publish outcome event", "error", err, "outcomeID", outcome.ID)
	}
}

// Rebuild discards the derived state for a triple and recomputes it by
// replaying the triple's full outcome history in order. This is the repair
// path for contention exhaustion and for any detected drift.
func (w *Writer) Rebuild(ctx context.Context, key TripleKey) (streak.State, error) {
	outcomes, err := w.store.ListTripleOutcomes(ctx, key)
	if err != nil {
		return streak.State{}, err
	}
	wins := make([]bool, len(outcomes))
	for i, o := range outcomes {
		wins[i] = o.Won
	}
	state := streak.Replay(streak.State{}, wins)
	if err := w.store.OverwriteState(ctx, key, state); err != nil {
		return streak.State{}, err
	}
	log.Info("Rebuilt streak state from history",
		"playerID", key.PlayerID, "groupID", key.GroupID, "outcomes", len(outcomes),
		"current", state.Current, "best", state.Best)
	return state, nil
}

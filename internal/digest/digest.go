// Package digest computes time-windowed summaries from the outcome history.
// A digest is derived state only: it is recomputed from the ledger on demand
// and never persisted.
package digest

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
)

// Tally is one player's record within a window.
type Tally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Lister is the slice of the ledger the aggregator reads from.
type Lister interface {
	ListOutcomes(ctx context.Context, groupID string, since, until time.Time) ([]ledger.Outcome, error)
}

// Aggregator folds ledger windows into per-player tallies.
type Aggregator struct {
	store   Lister
	metrics metrics.Metrics
}

// New creates an Aggregator over the given ledger.
func New(store Lister, metricsSvc metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, metrics: metricsSvc}
}

// Weekly tallies wins and losses per player for outcomes in [since, now).
// Players with no outcomes in the window are absent from the result; callers
// decide whether to zero-fill for display. Aggregation is by group only,
// across seasons.
func (a *Aggregator) Weekly(ctx context.Context, groupID string, since time.Time) (map[string]Tally, error) {
	outcomes, err := a.store.ListOutcomes(ctx, groupID, since, time.Now())
	if err != nil {
		log.Error("Failed to list outcomes for digest", "error", err, "groupID", groupID)
		return nil, err
	}

	stats := make(map[string]Tally)
	for _, o := range outcomes {
		tally := stats[o.PlayerID]
		if o.Won {
			tally.Wins++
		} else {
			tally.Losses++
		}
		stats[o.PlayerID] = tally
	}

	a.metrics.IncDigestsServed()
	log.Debug("Computed weekly digest", "groupID", groupID, "since", since, "players", len(stats))
	return stats, nil
}

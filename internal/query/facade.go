// Package query is the read-only facade consumed by the HTTP surface and
// the bot replies. It contains no logic of its own; it resolves the group's
// active season and passes through to the ledger and digest aggregator.
package query

import (
	"context"
	"time"

	"github.com/oddmundk/streakbot/internal/digest"
	"github.com/oddmundk/streakbot/internal/ledger"
)

type Facade struct {
	store  ledger.LedgerStore
	digest *digest.Aggregator
}

// New creates a Facade over the ledger and aggregator.
func New(store ledger.LedgerStore, aggregator *digest.Aggregator) *Facade {
	return &Facade{store: store, digest: aggregator}
}

// GroupRecords returns the record table for the group's active season
// partition (or the season-less partition when no season is active).
func (f *Facade) GroupRecords(ctx context.Context, groupID string) ([]ledger.PlayerRecord, error) {
	seasonID, err := f.store.ActiveSeason(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return f.store.GroupRecords(ctx, groupID, seasonID)
}

// WeeklyStats returns per-player win/loss tallies for outcomes since the
// given time, group-wide across seasons.
func (f *Facade) WeeklyStats(ctx context.Context, groupID string, since time.Time) (map[string]digest.Tally, error) {
	return f.digest.Weekly(ctx, groupID, since)
}

// PlayerNames resolves display names for a set of player ids. Unknown ids
// are simply absent from the result.
func (f *Facade) PlayerNames(ctx context.Context, playerIDs []string) (map[string]string, error) {
	players, err := f.store.GetPlayers(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names, nil
}

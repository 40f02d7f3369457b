package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oddmundk/streakbot/internal/streak"
)

// MockStore is an in-memory implementation of LedgerStore for testing.
// It is safe for concurrent use and honors the same compare-and-set
// semantics as the SQL store.
type MockStore struct {
	mu       sync.Mutex
	outcomes []Outcome
	states   map[TripleKey]mockState
	players  map[string]PlayerInfo
	groups   map[string]Group
	seasons  map[string]string // groupID -> active seasonID

	// Optional error injections
	AppendErr error
	WriteErr  error
	ListErr   error
}

type mockState struct {
	state   streak.State
	version int64
}

var _ LedgerStore = (*MockStore)(nil)

// NewMockStore creates a new empty mock ledger.
func NewMockStore() *MockStore {
	return &MockStore{
		states:  make(map[TripleKey]mockState),
		players: make(map[string]PlayerInfo),
		groups:  make(map[string]Group),
		seasons: make(map[string]string),
	}
}

func (m *MockStore) Append(ctx context.Context, outcome Outcome) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

// Outcomes returns a copy of everything appended so far.
func (m *MockStore) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}

func (m *MockStore) CurrentState(ctx context.Context, key TripleKey) (streak.State, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	if !ok {
		return streak.State{}, 0, nil
	}
	return st.state, st.version, nil
}

func (m *MockStore) WriteCurrentState(ctx context.Context, key TripleKey, state streak.State, expectedVersion int64) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.states[key]
	if !ok {
		if expectedVersion != 0 {
			return ErrConflict
		}
		m.states[key] = mockState{state: state, version: 1}
		return nil
	}
	if current.version != expectedVersion {
		return ErrConflict
	}
	m.states[key] = mockState{state: state, version: expectedVersion + 1}
	return nil
}

func (m *MockStore) OverwriteState(ctx context.Context, key TripleKey, state streak.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = mockState{state: state, version: m.states[key].version + 1}
	return nil
}

func (m *MockStore) ListOutcomes(ctx context.Context, groupID string, since, until time.Time) ([]Outcome, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Outcome
	for _, o := range m.outcomes {
		if o.GroupID == groupID && o.OccurredAt >= since.Unix() && o.OccurredAt < until.Unix() {
			result = append(result, o)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt < result[j].OccurredAt })
	return result, nil
}

func (m *MockStore) ListTripleOutcomes(ctx context.Context, key TripleKey) ([]Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Outcome
	for _, o := range m.outcomes {
		if o.Triple() == key {
			result = append(result, o)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt < result[j].OccurredAt })
	return result, nil
}

func (m *MockStore) GroupRecords(ctx context.Context, groupID, seasonID string) ([]PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []PlayerRecord
	for key, st := range m.states {
		if key.GroupID != groupID || key.SeasonID != seasonID {
			continue
		}
		rec := PlayerRecord{PlayerID: key.PlayerID, PlayerName: key.PlayerID, Streak: st.state}
		if p, ok := m.players[key.PlayerID]; ok && p.Name != "" {
			rec.PlayerName = p.Name
		}
		for _, o := range m.outcomes {
			if o.Triple() == key {
				if o.Won {
					rec.Wins++
				} else {
					rec.Losses++
				}
			}
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Streak.Current != records[j].Streak.Current {
			return records[i].Streak.Current > records[j].Streak.Current
		}
		return records[i].PlayerID < records[j].PlayerID
	})
	return records, nil
}

func (m *MockStore) UpsertPlayer(ctx context.Context, player PlayerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.ID] = player
	return nil
}

func (m *MockStore) GetPlayers(ctx context.Context, playerIDs []string) ([]PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := []PlayerInfo{}
	for _, id := range playerIDs {
		if p, ok := m.players[id]; ok {
			players = append(players, p)
		}
	}
	return players, nil
}

func (m *MockStore) UpsertGroup(ctx context.Context, group Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	return nil
}

func (m *MockStore) GroupBySlug(ctx context.Context, slug string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Slug == slug {
			found := g
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockStore) GroupByID(ctx context.Context, id string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		found := g
		return &found, nil
	}
	return nil, nil
}

func (m *MockStore) ActiveSeason(ctx context.Context, groupID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seasons[groupID], nil
}

func (m *MockStore) SetActiveSeason(ctx context.Context, season Season) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasons[season.GroupID] = season.ID
	return nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = nil
	m.states = make(map[TripleKey]mockState)
	m.players = make(map[string]PlayerInfo)
	m.groups = make(map[string]Group)
	m.seasons = make(map[string]string)
	return nil
}

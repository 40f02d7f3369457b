package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	outcomesRecorded    int
	stateConflicts      int
	contentionExhausted int
	digestsServed       int
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncOutcomesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomesRecorded++
}

func (m *Mock) IncStateConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateConflicts++
}

func (m *Mock) IncContentionExhausted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentionExhausted++
}

func (m *Mock) IncDigestsServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digestsServed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// OutcomesRecorded returns the number of times IncOutcomesRecorded was called.
func (m *Mock) OutcomesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomesRecorded
}

// StateConflicts returns the number of times IncStateConflicts was called.
func (m *Mock) StateConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateConflicts
}

// ContentionExhausted returns the number of times IncContentionExhausted was called.
func (m *Mock) ContentionExhausted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contentionExhausted
}

// DigestsServed returns the number of times IncDigestsServed was called.
func (m *Mock) DigestsServed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.digestsServed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}

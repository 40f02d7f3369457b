package notifier

import (
	"sync"
	"time"

	"github.com/oddmundk/streakbot/internal/ledger"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendOutcomeRecordedCalls []OutcomeNotice
	SendGroupRecordsCalls    [][]ledger.PlayerRecord
	SendWeeklyDigestCalls    [][]WeeklyRow

	// Spies for format functions
	FormatOutcomeRecordedResponseFunc func(notice OutcomeNotice) (any, error)
	FormatGroupRecordsResponseFunc    func(groupSlug string, records []ledger.PlayerRecord) (any, error)
	FormatWeeklyDigestResponseFunc    func(groupSlug string, rows []WeeklyRow, since time.Time) (any, error)
	FormatGroupNotFoundResponseFunc   func(slug string) (any, error)

	// Last responses returned by the format functions
	LastOutcomeRecordedResponse any
	LastGroupRecordsResponse    any
	LastWeeklyDigestResponse    any
	LastGroupNotFoundResponse   any
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendOutcomeRecordedCalls = nil
	m.SendGroupRecordsCalls = nil
	m.SendWeeklyDigestCalls = nil
	m.LastOutcomeRecordedResponse = nil
	m.LastGroupRecordsResponse = nil
	m.LastWeeklyDigestResponse = nil
	m.LastGroupNotFoundResponse = nil
}

func (m *Mock) SendOutcomeRecorded(notice OutcomeNotice, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendOutcomeRecordedCalls = append(m.SendOutcomeRecordedCalls, notice)
	return nil
}

func (m *Mock) SendGroupRecords(groupSlug string, records []ledger.PlayerRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendGroupRecordsCalls = append(m.SendGroupRecordsCalls, records)
	return nil
}

func (m *Mock) SendWeeklyDigest(groupSlug string, rows []WeeklyRow, since time.Time, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendWeeklyDigestCalls = append(m.SendWeeklyDigestCalls, rows)
	return nil
}

func (m *Mock) FormatOutcomeRecordedResponse(notice OutcomeNotice) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatOutcomeRecordedResponseFunc != nil {
		resp, err := m.FormatOutcomeRecordedResponseFunc(notice)
		m.LastOutcomeRecordedResponse = resp
		return resp, err
	}
	m.LastOutcomeRecordedResponse = notice
	return notice, nil
}

func (m *Mock) FormatGroupRecordsResponse(groupSlug string, records []ledger.PlayerRecord) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatGroupRecordsResponseFunc != nil {
		resp, err := m.FormatGroupRecordsResponseFunc(groupSlug, records)
		m.LastGroupRecordsResponse = resp
		return resp, err
	}
	m.LastGroupRecordsResponse = records
	return records, nil
}

func (m *Mock) FormatWeeklyDigestResponse(groupSlug string, rows []WeeklyRow, since time.Time) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatWeeklyDigestResponseFunc != nil {
		resp, err := m.FormatWeeklyDigestResponseFunc(groupSlug, rows, since)
		m.LastWeeklyDigestResponse = resp
		return resp, err
	}
	m.LastWeeklyDigestResponse = rows
	return rows, nil
}

func (m *Mock) FormatGroupNotFoundResponse(slug string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatGroupNotFoundResponseFunc != nil {
		resp, err := m.FormatGroupNotFoundResponseFunc(slug)
		m.LastGroupNotFoundResponse = resp
		return resp, err
	}
	m.LastGroupNotFoundResponse = slug
	return slug, nil
}

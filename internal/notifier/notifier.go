package notifier

import (
	"time"

	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/streak"
)

// OutcomeNotice describes one recorded outcome for presentation.
type OutcomeNotice struct {
	PlayerName string
	GroupSlug  string
	Won        bool
	State      streak.State
}

// WeeklyRow is one line of a rendered weekly digest, already resolved to a
// display name and sorted by the caller.
type WeeklyRow struct {
	PlayerName string
	Wins       int
	Losses     int
}

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For pushed announcements
	SendOutcomeRecorded(notice OutcomeNotice, dryRun bool) error
	SendGroupRecords(groupSlug string, records []ledger.PlayerRecord, dryRun bool) error
	SendWeeklyDigest(groupSlug string, rows []WeeklyRow, since time.Time, dryRun bool) error

	// For formatting responses for slash commands
	FormatOutcomeRecordedResponse(notice OutcomeNotice) (any, error)
	FormatGroupRecordsResponse(groupSlug string, records []ledger.PlayerRecord) (any, error)
	FormatWeeklyDigestResponse(groupSlug string, rows []WeeklyRow, since time.Time) (any, error)
	FormatGroupNotFoundResponse(slug string) (any, error)
}

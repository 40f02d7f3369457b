package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendOutcomeRecorded(notice notifier.OutcomeNotice, dryRun bool) error {
	msg := s.formatOutcomeRecorded(notice)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendGroupRecords(groupSlug string, records []ledger.PlayerRecord, dryRun bool) error {
	msg := s.formatGroupRecords(groupSlug, records)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendWeeklyDigest(groupSlug string, rows []notifier.WeeklyRow, since time.Time, dryRun bool) error {
	msg := s.formatWeeklyDigest(groupSlug, rows, since)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatOutcomeRecordedResponse formats a recorded-outcome confirmation for a slash command response.
func (s *Notifier) FormatOutcomeRecordedResponse(notice notifier.OutcomeNotice) (any, error) {
	return s.formatOutcomeRecorded(notice), nil
}

// FormatGroupRecordsResponse formats a record table for a slash command response.
func (s *Notifier) FormatGroupRecordsResponse(groupSlug string, records []ledger.PlayerRecord) (any, error) {
	return s.formatGroupRecords(groupSlug, records), nil
}

// FormatWeeklyDigestResponse formats a weekly digest for a slash command response.
func (s *Notifier) FormatWeeklyDigestResponse(groupSlug string, rows []notifier.WeeklyRow, since time.Time) (any, error) {
	return s.formatWeeklyDigest(groupSlug, rows, since), nil
}

// FormatGroupNotFoundResponse formats a group-not-found message for a slash command response.
func (s *Notifier) FormatGroupNotFoundResponse(slug string) (any, error) {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("plain_text",
				fmt.Sprintf("No group named '%s' is known yet. Report a result in its channel first.", slug), false, false),
			nil, nil),
	}
	return slack.NewBlockMessage(blocks...), nil
}

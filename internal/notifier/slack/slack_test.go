package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/oddmundk/streakbot/internal/streak"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI implements slackClient for tests.
type mockSlackAPI struct {
	calls           int
	lastChannelID   string
	postMessageFunc func(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	m.calls++
	m.lastChannelID = channelID
	if m.postMessageFunc != nil {
		return m.postMessageFunc(ctx, channelID, options...)
	}
	return channelID, "12345.6789", nil
}

// blockTexts flattens the plain-text content of a message's blocks for assertions.
func blockTexts(t *testing.T, msg slack.Message) []string {
	t.Helper()
	var texts []string
	for _, block := range msg.Blocks.BlockSet {
		switch b := block.(type) {
		case *slack.HeaderBlock:
			texts = append(texts, b.Text.Text)
		case *slack.SectionBlock:
			if b.Text != nil {
				texts = append(texts, b.Text.Text)
			}
		case *slack.ContextBlock:
			for _, el := range b.ContextElements.Elements {
				if obj, ok := el.(*slack.TextBlockObject); ok {
					texts = append(texts, obj.Text)
				}
			}
		}
	}
	return texts
}

func contains(texts []string, substr string) bool {
	for _, text := range texts {
		if text == substr {
			return true
		}
	}
	return false
}

func TestSendOutcomeRecorded(t *testing.T) {
	api := &mockSlackAPI{}
	metricsSvc := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsSvc)

	err := n.SendOutcomeRecorded(notifier.OutcomeNotice{
		PlayerName: "Ada", GroupSlug: "padel", Won: true,
		State: streak.State{Current: 3, Best: 3},
	}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "C123", api.lastChannelID)
	assert.Equal(t, 1, metricsSvc.SlackNotifSent())
	assert.Equal(t, 0, metricsSvc.SlackNotifFailed())
}

func TestSendOutcomeRecordedDryRun(t *testing.T) {
	api := &mockSlackAPI{}
	metricsSvc := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsSvc)

	err := n.SendOutcomeRecorded(notifier.OutcomeNotice{PlayerName: "Ada", Won: true}, true)

	require.NoError(t, err)
	assert.Equal(t, 0, api.calls, "dry run must not hit the Slack API")
	assert.Equal(t, 0, metricsSvc.SlackNotifSent())
}

func TestSendFailureIncrementsMetric(t *testing.T) {
	api := &mockSlackAPI{
		postMessageFunc: func(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
			return "", "", errors.New("slack is down")
		},
	}
	metricsSvc := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsSvc)

	err := n.SendGroupRecords("padel", nil, false)

	assert.Error(t, err)
	assert.Equal(t, 1, metricsSvc.SlackNotifFailed())
	assert.Equal(t, 0, metricsSvc.SlackNotifSent())
}

func TestStreakLabel(t *testing.T) {
	assert.Equal(t, "W3", streakLabel(3))
	assert.Equal(t, "L2", streakLabel(-2))
	assert.Equal(t, "-", streakLabel(0))
}

func TestFormatOutcomeRecorded(t *testing.T) {
	n := NewNotifierWithAPI(&mockSlackAPI{}, "C123", metrics.NewMock())

	t.Run("win on a new personal best", func(t *testing.T) {
		msg := n.formatOutcomeRecorded(notifier.OutcomeNotice{
			PlayerName: "Ada", GroupSlug: "padel", Won: true,
			State: streak.State{Current: 3, Best: 3},
		})
		texts := blockTexts(t, msg)
		assert.True(t, contains(texts, "🏆 Ada won!"))
		assert.True(t, contains(texts, "That's 3 in a row. A new personal best! 🔥"))
		assert.True(t, contains(texts, "Best streak: 3 · Group: padel"))
	})

	t.Run("loss", func(t *testing.T) {
		msg := n.formatOutcomeRecorded(notifier.OutcomeNotice{
			PlayerName: "Ben", GroupSlug: "padel", Won: false,
			State: streak.State{Current: -2, Best: 4},
		})
		texts := blockTexts(t, msg)
		assert.True(t, contains(texts, "💀 Ben lost."))
		assert.True(t, contains(texts, "That's 2 losses in a row."))
	})
}

func TestFormatGroupRecords(t *testing.T) {
	n := NewNotifierWithAPI(&mockSlackAPI{}, "C123", metrics.NewMock())

	t.Run("empty group", func(t *testing.T) {
		msg := n.formatGroupRecords("padel", nil)
		texts := blockTexts(t, msg)
		assert.True(t, contains(texts, "📋 Records for padel"))
		assert.True(t, contains(texts, "No results recorded yet."))
	})

	t.Run("ranked lines", func(t *testing.T) {
		records := []ledger.PlayerRecord{
			{PlayerID: "p1", PlayerName: "Ada", Wins: 5, Losses: 1, Streak: streak.State{Current: 3, Best: 4}},
			{PlayerID: "p2", PlayerName: "Ben", Wins: 1, Losses: 5, Streak: streak.State{Current: -2, Best: 1}},
		}
		msg := n.formatGroupRecords("padel", records)
		texts := blockTexts(t, msg)
		assert.True(t, contains(texts, "1. Ada — 5W/1L, streak W3 (best 4)\n2. Ben — 1W/5L, streak L2 (best 1)"))
	})
}

func TestFormatWeeklyDigest(t *testing.T) {
	n := NewNotifierWithAPI(&mockSlackAPI{}, "C123", metrics.NewMock())
	since := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

	rows := []notifier.WeeklyRow{
		{PlayerName: "Ada", Wins: 4, Losses: 1},
		{PlayerName: "Ben", Wins: 1, Losses: 3},
	}
	msg := n.formatWeeklyDigest("padel", rows, since)
	texts := blockTexts(t, msg)
	assert.True(t, contains(texts, "🗞️ Weekly digest for padel"))
	assert.True(t, contains(texts, "• Ada: 4W/1L (+3)\n• Ben: 1W/3L (-2)"))
	assert.True(t, contains(texts, "Since Monday 17 Aug"))
}

package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/slack-go/slack"
)

// streakLabel renders a signed streak as a short human string.
func streakLabel(current int) string {
	switch {
	case current > 0:
		return fmt.Sprintf("W%d", current)
	case current < 0:
		return fmt.Sprintf("L%d", -current)
	default:
		return "-"
	}
}

func (s *Notifier) formatOutcomeRecorded(notice notifier.OutcomeNotice) slack.Message {
	blocks := make([]slack.Block, 0)

	var headline string
	if notice.Won {
		headline = fmt.Sprintf("🏆 %s won!", notice.PlayerName)
	} else {
		headline = fmt.Sprintf("💀 %s lost.", notice.PlayerName)
	}
	headerText := slack.NewTextBlockObject("plain_text", headline, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var runText string
	if notice.State.Current > 0 {
		runText = fmt.Sprintf("That's %d in a row.", notice.State.Current)
	} else {
		runText = fmt.Sprintf("That's %d losses in a row.", -notice.State.Current)
	}
	if notice.State.Current == notice.State.Best && notice.State.Current > 1 {
		runText += " A new personal best! 🔥"
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", runText, true, false), nil, nil))

	contextText := fmt.Sprintf("Best streak: %d · Group: %s", notice.State.Best, notice.GroupSlug)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, false, false)))

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatGroupRecords(groupSlug string, records []ledger.PlayerRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("📋 Records for %s", groupSlug), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(records) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("plain_text", "No results recorded yet.", false, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("%d. %s — %dW/%dL, streak %s (best %d)",
			i+1, rec.PlayerName, rec.Wins, rec.Losses, streakLabel(rec.Streak.Current), rec.Streak.Best))
	}
	blocks = append(blocks, slack.NewSectionBlock(
		slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatWeeklyDigest(groupSlug string, rows []notifier.WeeklyRow, since time.Time) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🗞️ Weekly digest for %s", groupSlug), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(rows) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("plain_text", "No matches played this week. Shameful.", false, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for _, row := range rows {
		net := row.Wins - row.Losses
		lines = append(lines, fmt.Sprintf("• %s: %dW/%dL (%+d)", row.PlayerName, row.Wins, row.Losses, net))
	}
	blocks = append(blocks, slack.NewSectionBlock(
		slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), false, false), nil, nil))

	contextText := fmt.Sprintf("Since %s", since.Format("Monday 02 Jan"))
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, false, false)))

	return slack.NewBlockMessage(blocks...)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/config"
	"github.com/oddmundk/streakbot/internal/digest"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/oddmundk/streakbot/internal/query"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// parseSlashCommand verifies the request signature against the signing
// secret and parses the slash command payload.
func parseSlashCommand(r *http.Request, signingSecret string) (slack.SlashCommand, error) {
	verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
	if err != nil {
		return slack.SlashCommand{}, fmt.Errorf("failed to create secrets verifier: %w", err)
	}
	r.Body = io.NopCloser(io.TeeReader(r.Body, &verifier))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		return slack.SlashCommand{}, fmt.Errorf("failed to parse slash command: %w", err)
	}
	if err := verifier.Ensure(); err != nil {
		return slack.SlashCommand{}, fmt.Errorf("invalid request signature: %w", err)
	}
	return cmd, nil
}

// parseResultText interprets the text field of a /result command.
// Accepted: "win", "won", "w", "loss", "lost", "l".
func parseResultText(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "win", "won", "w":
		return true, nil
	case "loss", "lost", "lose", "l":
		return false, nil
	default:
		return false, fmt.Errorf("could not interpret result '%s'", text)
	}
}

// ResultCommandHandler records a win or loss for the reporting user in the
// channel's group, scoped to the group's active season if one exists.
func ResultCommandHandler(store ledger.LedgerStore, writer *ledger.Writer, notif notifier.Notifier, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := parseSlashCommand(r, cfg.Slack.SigningSecret)
		if err != nil {
			log.Warn("Rejected slash command", "error", err)
			http.Error(w, "Invalid request", http.StatusUnauthorized)
			return
		}

		won, err := parseResultText(cmd.Text)
		if err != nil {
			http.Error(w, "Say '/result win' or '/result loss'.", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		log.Info("Received result command", "user", cmd.UserName, "channel", cmd.ChannelName, "won", won)

		// The channel is the group; first report from a channel creates it.
		group := ledger.Group{ID: cmd.ChannelID, Slug: cmd.ChannelName}
		if err := store.UpsertGroup(ctx, group); err != nil {
			http.Error(w, "Failed to resolve group", http.StatusInternalServerError)
			log.Error("Failed to upsert group", "error", err, "channel", cmd.ChannelName)
			return
		}
		if err := store.UpsertPlayer(ctx, ledger.PlayerInfo{ID: cmd.UserID, Name: cmd.UserName}); err != nil {
			http.Error(w, "Failed to resolve player", http.StatusInternalServerError)
			log.Error("Failed to upsert player", "error", err, "user", cmd.UserName)
			return
		}
		seasonID, err := store.ActiveSeason(ctx, group.ID)
		if err != nil {
			http.Error(w, "Failed to resolve season", http.StatusInternalServerError)
			log.Error("Failed to resolve active season", "error", err, "groupID", group.ID)
			return
		}

		key := ledger.TripleKey{PlayerID: cmd.UserID, GroupID: group.ID, SeasonID: seasonID}
		state, err := writer.RecordOutcome(ctx, key, won)
		if err != nil {
			if errors.Is(err, ledger.ErrRankingContention) {
				// The match itself is durable; only the derived state lags.
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, "Your result is recorded, but the streak update is delayed. It will catch up shortly.")
				return
			}
			http.Error(w, "Failed to record your result. Please try again.", http.StatusInternalServerError)
			log.Error("Failed to record outcome", "error", err, "user", cmd.UserName)
			return
		}

		msg, err := notif.FormatOutcomeRecordedResponse(notifier.OutcomeNotice{
			PlayerName: cmd.UserName,
			GroupSlug:  group.Slug,
			Won:        won,
			State:      state,
		})
		if err != nil {
			http.Error(w, "Failed to format response", http.StatusInternalServerError)
			log.Error("Failed to format outcome response", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}

// RecordsCommandHandler replies with the channel group's record table.
func RecordsCommandHandler(store ledger.LedgerStore, facade *query.Facade, notif notifier.Notifier, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := parseSlashCommand(r, cfg.Slack.SigningSecret)
		if err != nil {
			log.Warn("Rejected slash command", "error", err)
			http.Error(w, "Invalid request", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		group, err := store.GroupBySlug(ctx, cmd.ChannelName)
		if err != nil {
			http.Error(w, "Failed to resolve group", http.StatusInternalServerError)
			log.Error("Failed to look up group", "error", err, "channel", cmd.ChannelName)
			return
		}
		if group == nil {
			respondNotFound(w, notif, cmd.ChannelName)
			return
		}

		records, err := facade.GroupRecords(ctx, group.ID)
		if err != nil {
			http.Error(w, "Failed to get group records", http.StatusInternalServerError)
			log.Error("Failed to get group records", "error", err, "groupID", group.ID)
			return
		}

		msg, err := notif.FormatGroupRecordsResponse(group.Slug, records)
		if err != nil {
			http.Error(w, "Failed to format records", http.StatusInternalServerError)
			log.Error("Failed to format records", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}

// WeeklyCommandHandler replies with the channel group's weekly digest.
func WeeklyCommandHandler(store ledger.LedgerStore, facade *query.Facade, notif notifier.Notifier, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := parseSlashCommand(r, cfg.Slack.SigningSecret)
		if err != nil {
			log.Warn("Rejected slash command", "error", err)
			http.Error(w, "Invalid request", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		group, err := store.GroupBySlug(ctx, cmd.ChannelName)
		if err != nil {
			http.Error(w, "Failed to resolve group", http.StatusInternalServerError)
			log.Error("Failed to look up group", "error", err, "channel", cmd.ChannelName)
			return
		}
		if group == nil {
			respondNotFound(w, notif, cmd.ChannelName)
			return
		}

		since := time.Now().AddDate(0, 0, -cfg.DigestWindowDays)
		stats, err := facade.WeeklyStats(ctx, group.ID, since)
		if err != nil {
			http.Error(w, "Failed to compute digest", http.StatusInternalServerError)
			log.Error("Failed to compute digest", "error", err, "groupID", group.ID)
			return
		}

		rows, err := digestRows(ctx, facade, stats)
		if err != nil {
			http.Error(w, "Failed to resolve player names", http.StatusInternalServerError)
			log.Error("Failed to resolve player names", "error", err)
			return
		}

		msg, err := notif.FormatWeeklyDigestResponse(group.Slug, rows, since)
		if err != nil {
			http.Error(w, "Failed to format digest", http.StatusInternalServerError)
			log.Error("Failed to format digest", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}

func respondNotFound(w http.ResponseWriter, notif notifier.Notifier, slug string) {
	msg, err := notif.FormatGroupNotFoundResponse(slug)
	if err != nil {
		http.Error(w, "Failed to format response", http.StatusInternalServerError)
		log.Error("Failed to format group not found response", "error", err)
		return
	}
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	respondWithSlackMsg(w, slackMsg)
}

// digestRows resolves a per-player tally map into display rows sorted by
// wins descending, then name. Players whose id has no stored name fall
// back to the id itself.
func digestRows(ctx context.Context, facade *query.Facade, stats map[string]digest.Tally) ([]notifier.WeeklyRow, error) {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	names, err := facade.PlayerNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]notifier.WeeklyRow, 0, len(stats))
	for id, tally := range stats {
		name, ok := names[id]
		if !ok {
			name = id
		}
		rows = append(rows, notifier.WeeklyRow{PlayerName: name, Wins: tally.Wins, Losses: tally.Losses})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].PlayerName < rows[j].PlayerName
	})
	return rows, nil
}

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/oddmundk/streakbot/internal/pubsub"
	"github.com/oddmundk/streakbot/internal/streak"
)

// OutcomeRecordedHandler receives the Pub/Sub push for a recorded outcome and
// announces it in the group's channel.
func OutcomeRecordedHandler(store ledger.LedgerStore, notif notifier.Notifier, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Cannot read body", http.StatusBadRequest)
			return
		}
		log.Debug("Received outcome recorded message", "body", string(bodyBytes))

		// Pub/Sub push wraps the payload in JSON with a base64 data field.
		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"`
			} `json:"message"`
		}
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		event := ledger.OutcomeRecordedEvent{}
		if err := pubsubClient.ProcessMessage(rawData, &event); err != nil {
			log.Error("Failed to decode outcome event", "error", err)
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		playerName := event.PlayerID
		if players, err := store.GetPlayers(ctx, []string{event.PlayerID}); err != nil {
			log.Warn("Failed to resolve player name, using id", "error", err, "playerID", event.PlayerID)
		} else if len(players) > 0 {
			playerName = players[0].Name
		}
		groupSlug := event.GroupID
		if group, err := store.GroupByID(ctx, event.GroupID); err != nil {
			log.Warn("Failed to resolve group slug, using id", "error", err, "groupID", event.GroupID)
		} else if group != nil {
			groupSlug = group.Slug
		}

		isDryRun := IsDryRunFromContext(r)
		notice := notifier.OutcomeNotice{
			PlayerName: playerName,
			GroupSlug:  groupSlug,
			Won:        event.Won,
			State:      streak.State{Current: event.Current, Best: event.Best},
		}
		if err := notif.SendOutcomeRecorded(notice, isDryRun); err != nil {
			log.Error("Failed to send outcome notification", "error", err, "outcomeID", event.OutcomeID)
			http.Error(w, "Failed to send notification", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

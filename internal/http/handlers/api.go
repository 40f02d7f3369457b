package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oddmundk/streakbot/internal/config"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/query"
)

// RecordsHandler serves the current record table for a group as JSON.
func RecordsHandler(facade *query.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := r.URL.Query().Get("group")
		if groupID == "" {
			http.Error(w, "Missing 'group' parameter", http.StatusBadRequest)
			return
		}

		records, err := facade.GroupRecords(r.Context(), groupID)
		if err != nil {
			http.Error(w, "Failed to get group records", http.StatusInternalServerError)
			log.Error("Failed to get group records", "error", err, "groupID", groupID)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			log.Error("Failed to encode records to JSON", "error", err)
		}
	}
}

// WeeklyHandler serves the windowed per-player tallies for a group as JSON.
// The window defaults to the configured digest width ending now; 'since'
// accepts an RFC 3339 override.
func WeeklyHandler(facade *query.Facade, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := r.URL.Query().Get("group")
		if groupID == "" {
			http.Error(w, "Missing 'group' parameter", http.StatusBadRequest)
			return
		}

		since := time.Now().AddDate(0, 0, -cfg.DigestWindowDays)
		if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
			parsed, err := time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				http.Error(w, "Invalid 'since' parameter, expected RFC 3339", http.StatusBadRequest)
				return
			}
			since = parsed
		}

		stats, err := facade.WeeklyStats(r.Context(), groupID, since)
		if err != nil {
			http.Error(w, "Failed to compute digest", http.StatusInternalServerError)
			log.Error("Failed to compute digest", "error", err, "groupID", groupID)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Error("Failed to encode digest to JSON", "error", err)
		}
	}
}

// RebuildHandler recomputes the derived streak state for one triple by
// replaying its outcome history. This is the repair path when a report
// exhausted its update retries or when drift is suspected.
func RebuildHandler(writer *ledger.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := ledger.TripleKey{
			PlayerID: r.URL.Query().Get("player"),
			GroupID:  r.URL.Query().Get("group"),
			SeasonID: r.URL.Query().Get("season"),
		}
		if key.PlayerID == "" || key.GroupID == "" {
			http.Error(w, "Missing 'player' or 'group' parameter", http.StatusBadRequest)
			return
		}

		state, err := writer.Rebuild(r.Context(), key)
		if err != nil {
			if errors.Is(err, ledger.ErrStorageUnavailable) {
				http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
			} else {
				http.Error(w, "Failed to rebuild state", http.StatusInternalServerError)
			}
			log.Error("Failed to rebuild streak state", "error", err, "playerID", key.PlayerID, "groupID", key.GroupID)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state); err != nil {
			log.Error("Failed to encode state to JSON", "error", err)
		}
	}
}

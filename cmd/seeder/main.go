package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/oddmundk/streakbot/internal/streak"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	const groupID = "seed-group"
	if _, err := db.Exec("INSERT OR IGNORE INTO groups (id, slug) VALUES (?, ?)", groupID, "seeded-padel"); err != nil {
		log.Fatalf("Failed to insert dummy group: %s", err)
	}

	dummyPlayers := []struct {
		ID   string
		Name string
	}{
		{"player-1", "Seeder Player A"},
		{"player-2", "Seeder Player B"},
		{"player-3", "Seeder Player C"},
		{"player-4", "Seeder Player D"},
	}
	for _, p := range dummyPlayers {
		if _, err := db.Exec("INSERT OR IGNORE INTO players (id, name) VALUES (?, ?)", p.ID, p.Name); err != nil {
			log.Fatalf("Failed to insert dummy player %s: %s", p.Name, err)
		}
	}
	log.Info("Ensured dummy group and players exist.")

	const batchSize = 100
	const numOutcomes = 10000

	log.Info("Preparing to insert dummy outcomes...", "total", numOutcomes, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	// Track each player's wins in order so the derived states can be
	// computed without replaying from the database afterwards.
	history := make(map[string][]bool)

	valueStrings := make([]string, 0, batchSize)
	valueArgs := make([]interface{}, 0, batchSize*6) // 6 columns per outcome

	for i := 0; i < numOutcomes; i++ {
		player := dummyPlayers[rand.Intn(len(dummyPlayers))]
		won := rand.Intn(2) == 0
		occurredAt := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)

		history[player.ID] = append(history[player.ID], won)

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			uuid.NewString(),
			player.ID,
			groupID,
			"",
			won,
			occurredAt.Unix(),
		)

		if (i+1)%batchSize == 0 || (i+1) == numOutcomes {
			stmt := fmt.Sprintf(`
				INSERT INTO match_outcomes (id, player_id, group_id, season_id, won, occurred_at)
				VALUES %s;`, strings.Join(valueStrings, ","))

			_, err := tx.Exec(stmt, valueArgs...)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to execute batch insert: %s", err)
			}

			// Reset for the next batch
			valueStrings = make([]string, 0, batchSize)
			valueArgs = make([]interface{}, 0, batchSize*6)
			log.Info("Inserted batch", "completed", i+1, "total", numOutcomes)
		}
	}

	// Derive streak states from the seeded histories. Note the insertion
	// order stands in for occurred_at order here; this is seed data, not
	// a faithful replay.
	for playerID, wins := range history {
		state := streak.Replay(streak.State{}, wins)
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO streak_states (player_id, group_id, season_id, current_streak, best_streak, version)
			VALUES (?, ?, ?, ?, ?, 1)`,
			playerID, groupID, "", state.Current, state.Best)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert streak state for %s: %s", playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully seeded outcomes and streak states.", "duration", duration)
}

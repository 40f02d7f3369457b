package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	groupID  string
	playerID string
	seasonID string
	since    string
)

func init() {
	recordsCmd.Flags().StringVar(&groupID, "group", "", "The group id to query")
	recordsCmd.MarkFlagRequired("group")

	weeklyCmd.Flags().StringVar(&groupID, "group", "", "The group id to query")
	weeklyCmd.Flags().StringVar(&since, "since", "", "Window start as RFC 3339 (defaults to the configured width)")
	weeklyCmd.MarkFlagRequired("group")

	rebuildCmd.Flags().StringVar(&playerID, "player", "", "The player id to rebuild")
	rebuildCmd.Flags().StringVar(&groupID, "group", "", "The group id to rebuild")
	rebuildCmd.Flags().StringVar(&seasonID, "season", "", "The season id to rebuild (empty for the season-less partition)")
	rebuildCmd.MarkFlagRequired("player")
	rebuildCmd.MarkFlagRequired("group")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the record table for a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/records?group=" + url.QueryEscape(groupID))
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Show the windowed win/loss tallies for a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/weekly?group=" + url.QueryEscape(groupID)
		if since != "" {
			endpoint += "&since=" + url.QueryEscape(since)
		}
		return performGetRequest(endpoint)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild a player's streak state from their outcome history",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := fmt.Sprintf("/rebuild?player=%s&group=%s&season=%s",
			url.QueryEscape(playerID), url.QueryEscape(groupID), url.QueryEscape(seasonID))
		return performGetRequest(endpoint)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

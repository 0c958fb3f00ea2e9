package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	baseURL    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "newsboard",
	Short: "Newsboard - news aggregator REST API",
	Long: `Newsboard serves articles, comments, topics and users over a JSON API.

Run without a command to start the server. Server settings come from
NEWSBOARD_* environment variables and optional .env files:

  NEWSBOARD_ENV               development, test or production (default: development)
  NEWSBOARD_ADDR              Listen address (default: :8080, or :$PORT)
  NEWSBOARD_DRIVER            sqlite or postgres (default: sqlite)
  NEWSBOARD_DB                SQLite database path (default: newsboard.db)
  NEWSBOARD_DATABASE_URL      PostgreSQL connection URL
  NEWSBOARD_RL_WRITE_PER_MIN  Write requests per client per minute, 0 for no limit
  NEWSBOARD_SHUTDOWN_TIMEOUT  Graceful shutdown timeout (default: 5s)`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Newsboard server URL for client commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, articlesCmd, articleCmd, topicsCmd, usersCmd)
}

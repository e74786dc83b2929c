package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/carematch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that fuses the datasets once at startup and exposes REST endpoints for matching runs and their persisted artifacts.`,
	RunE:  runServe,
}

var (
	servePort          int
	servePrimary       string
	serveSecondary     string
	serveRuleset       string
	serveKeepSecondary bool
	serveWorkers       int
	serveDatabaseURL   string
	serveRequireAuth   bool
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVarP(&servePrimary, "primary", "p", "", "Path to the regulator dataset (optional, defaults to PRIMARY_DATASET env var)")
	serveCmd.Flags().StringVarP(&serveSecondary, "secondary", "s", "", "Path to the directory dataset (optional, defaults to SECONDARY_DATASET env var)")
	serveCmd.Flags().StringVarP(&serveRuleset, "ruleset", "r", "", "Path to the ruleset JSON (optional, defaults to RULESET_PATH env var or the built-in ruleset)")
	serveCmd.Flags().BoolVar(&serveKeepSecondary, "keep-secondary-only", false, "Admit directory records the regulator has never seen")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Concurrent scoring workers per request (0 = one per CPU)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().BoolVar(&serveRequireAuth, "require-auth", false, "Protect /api/v1 routes with JWT bearer tokens and/or static API keys")

	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	primary := servePrimary
	if primary == "" {
		primary = os.Getenv("PRIMARY_DATASET")
	}
	if primary == "" {
		return fmt.Errorf("a primary dataset is required (set PRIMARY_DATASET environment variable or use --primary flag)")
	}

	secondary := serveSecondary
	if secondary == "" {
		secondary = os.Getenv("SECONDARY_DATASET")
	}

	ruleset := serveRuleset
	if ruleset == "" {
		ruleset = os.Getenv("RULESET_PATH")
	}

	databaseURL := serveDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	cfg := server.Config{
		Port:              servePort,
		DatabaseURL:       databaseURL,
		RulesetPath:       ruleset,
		PrimaryPath:       primary,
		SecondaryPath:     secondary,
		KeepSecondaryOnly: serveKeepSecondary,
		Workers:           serveWorkers,
		RequireAuth:       serveRequireAuth,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

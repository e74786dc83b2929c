package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwhitfield/carematch/internal/config"
	"github.com/mwhitfield/carematch/internal/db"
	"github.com/mwhitfield/carematch/internal/engine"
	"github.com/mwhitfield/carematch/internal/fusion"
	"github.com/mwhitfield/carematch/internal/loader"
	"github.com/mwhitfield/carematch/internal/observability"
	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/schemas"
	"github.com/mwhitfield/carematch/internal/scoring"
	"github.com/mwhitfield/carematch/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score care homes against a resident profile and print a shortlist",
	Long: `Runs the full matching pipeline: load the ruleset and datasets, fuse them into one candidate pool, score every home against the resident profile and print a ranked, diversified shortlist.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runMatch,
}

var (
	matchConfigPath    string
	matchPrimary       string
	matchSecondary     string
	matchRuleset       string
	matchProfile       string
	matchOutput        string
	matchTopK          int
	matchMinShortlist  int
	matchWorkers       int
	matchKeepSecondary bool
	matchDatabaseURL   string
	matchVerbose       bool
)

func init() {
	// Config file flag (processed first)
	matchCmd.Flags().StringVar(&matchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	matchCmd.Flags().StringVarP(&matchPrimary, "primary", "p", "", "Path to the regulator dataset (CSV or JSON)")
	matchCmd.Flags().StringVarP(&matchSecondary, "secondary", "s", "", "Path to the directory dataset (optional)")
	matchCmd.Flags().StringVarP(&matchRuleset, "ruleset", "r", "", "Path to the ruleset JSON (optional, defaults to the built-in ruleset)")
	matchCmd.Flags().StringVar(&matchProfile, "profile", "", "Path to the resident profile JSON")
	matchCmd.Flags().StringVarP(&matchOutput, "out", "o", "", "Path to write the selection result JSON (optional)")
	matchCmd.Flags().IntVar(&matchTopK, "top-k", 0, "Shortlist length (0 = ruleset default)")
	matchCmd.Flags().IntVar(&matchMinShortlist, "min-shortlist", 0, "Fewest scored candidates before the run is refused (0 = disabled)")
	matchCmd.Flags().IntVar(&matchWorkers, "workers", 0, "Concurrent scoring workers (0 = one per CPU)")
	matchCmd.Flags().BoolVar(&matchKeepSecondary, "keep-secondary-only", false, "Admit directory records the regulator has never seen")
	matchCmd.Flags().StringVar(&matchDatabaseURL, "db-url", "", "PostgreSQL connection URL for run persistence (optional, defaults to DATABASE_URL env var)")
	matchCmd.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Print profile, weight, fusion and diagnostic detail")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if matchConfigPath != "" {
		loadedCfg, err := config.LoadConfig(matchConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if matchVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", matchConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("primary") {
		cfg.Primary = matchPrimary
	}
	if cmd.Flags().Changed("secondary") {
		cfg.Secondary = matchSecondary
	}
	if cmd.Flags().Changed("ruleset") {
		cfg.Ruleset = matchRuleset
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = matchProfile
	}
	if cmd.Flags().Changed("out") {
		cfg.Output = matchOutput
	}
	if cmd.Flags().Changed("top-k") {
		cfg.TopK = matchTopK
	}
	if cmd.Flags().Changed("min-shortlist") {
		cfg.MinShortlist = matchMinShortlist
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = matchWorkers
	}
	if cmd.Flags().Changed("keep-secondary-only") {
		cfg.KeepSecondaryOnly = matchKeepSecondary
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = matchDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = matchVerbose
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		TopK: 10,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Validate required fields
	if cfg.Primary == "" {
		return fmt.Errorf("a primary dataset is required (via --primary flag or config)")
	}
	if cfg.Profile == "" {
		return fmt.Errorf("a resident profile is required (via --profile flag or config)")
	}

	// Step 5: Database URL handling (persistence is optional)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	printer := observability.NewPrinter(os.Stdout)

	// Step 1/5: ruleset
	rs := rules.Default()
	if cfg.Ruleset != "" {
		fmt.Printf("Step 1/5: Loading ruleset from %s...\n", cfg.Ruleset)
		loaded, err := rules.Load(cfg.Ruleset)
		if err != nil {
			return fmt.Errorf("failed to load ruleset: %w", err)
		}
		rs = loaded
	} else {
		fmt.Printf("Step 1/5: Using the built-in default ruleset...\n")
	}

	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		printer.PrintProfile(profile)
		weights, applied, err := scoring.ComputeWeights(rs, profile)
		if err != nil {
			return fmt.Errorf("invalid profile priorities: %w", err)
		}
		printer.PrintWeights(weights, applied)
	}

	// Step 2/5: datasets
	fmt.Printf("Step 2/5: Loading primary dataset from %s...\n", cfg.Primary)
	primary, preport, err := loader.Load(cfg.Primary, loader.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to load primary dataset: %w", err)
	}
	if cfg.Verbose {
		printer.PrintDatasetReport("regulator", preport)
	}

	var secondary []types.RawRecord
	var sreport *loader.Report
	if cfg.Secondary != "" {
		fmt.Printf("Step 2/5: Loading secondary dataset from %s...\n", cfg.Secondary)
		secondary, sreport, err = loader.Load(cfg.Secondary, loader.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to load secondary dataset: %w", err)
		}
		if cfg.Verbose {
			printer.PrintDatasetReport("directory", sreport)
		}
	}

	// Step 3/5: fusion
	fmt.Printf("Step 3/5: Fusing datasets...\n")
	fuseOpts := fusion.DefaultOptions()
	fuseOpts.KeepSecondaryOnly = cfg.KeepSecondaryOnly
	candidates, freport, err := fusion.Fuse(primary, secondary, fuseOpts)
	if err != nil {
		return fmt.Errorf("failed to fuse datasets: %w", err)
	}
	if cfg.Verbose {
		printer.PrintFusionReport(freport)
	}

	// Optional run persistence. A dead database downgrades to a warning;
	// the match itself never depends on it.
	var database *db.DB
	var runID uuid.UUID
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without run persistence...\n")
			database = nil
		} else {
			defer database.Close()
			runID, err = database.CreateRun(ctx, profile.Postcode, profile.CareType)
			if err != nil {
				fmt.Printf("Warning: Failed to create database run: %v\n", err)
				database = nil
			} else if cfg.Verbose {
				fmt.Printf("[VERBOSE] Created database run: %s\n", runID)
			}
		}
	}
	if database != nil {
		saveArtifact(ctx, database, runID, db.StepProfile, "profile", profile)
		saveArtifact(ctx, database, runID, db.StepDatasetReport, "ingestion", map[string]*loader.Report{
			"primary":   preport,
			"secondary": sreport,
		})
		saveArtifact(ctx, database, runID, db.StepFusionReport, "fusion", freport)
	}

	// Step 4/5: scoring
	fmt.Printf("Step 4/5: Scoring %d candidates...\n", len(candidates))
	eng := engine.New(rs)
	result, err := eng.Match(ctx, profile, candidates, engine.Options{
		TopK:         cfg.TopK,
		MinShortlist: cfg.MinShortlist,
		Workers:      cfg.Workers,
	})
	if err != nil {
		if database != nil {
			if cerr := database.CompleteRun(ctx, runID, db.StatusFailed); cerr != nil {
				fmt.Printf("Warning: Failed to mark run as failed: %v\n", cerr)
			}
		}
		var insufficient *engine.InsufficientCandidatesError
		if errors.As(err, &insufficient) {
			_, _ = fmt.Fprintf(os.Stderr, "No viable shortlist: %v\n", insufficient)
			for _, hint := range insufficient.Hints {
				_, _ = fmt.Fprintf(os.Stderr, "  - %s\n", hint)
			}
		}
		return fmt.Errorf("matching failed: %w", err)
	}

	// Step 5/5: output
	fmt.Printf("Step 5/5: Shortlist ready (%d ranked, %d slots).\n", len(result.Ranked), len(result.Slots))
	printer.PrintShortlist(result)
	if cfg.Verbose {
		if len(result.Ranked) > 0 {
			printer.PrintBreakdown(&result.Ranked[0].Breakdown)
		}
		printer.PrintDiagnostics(&result.Diagnostics)
	}

	if database != nil {
		saveArtifact(ctx, database, runID, db.StepSelection, "selection", result)
		saveArtifact(ctx, database, runID, db.StepDiagnostics, "selection", result.Diagnostics)

		var shortlist bytes.Buffer
		observability.NewPrinter(&shortlist).PrintShortlist(result)
		if err := database.SaveTextArtifact(ctx, runID, db.StepShortlistText, "selection", shortlist.String()); err != nil {
			fmt.Printf("Warning: Failed to save shortlist text: %v\n", err)
		}

		if err := database.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
			fmt.Printf("Warning: Failed to mark run as completed: %v\n", err)
		} else {
			fmt.Printf("Run persisted: %s\n", runID)
		}
	}

	if cfg.Output != "" {
		if err := writeSelection(cfg.Output, result); err != nil {
			return err
		}
		fmt.Printf("Output: %s\n", cfg.Output)
	}

	return nil
}

// loadProfile reads and validates a resident profile file. The JSON
// Schema check runs before decoding so shape mistakes surface with field
// paths; when the schema file cannot be found the struct validator still
// guards the decoded profile, so that only warns.
func loadProfile(path string) (*types.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if schemaPath := schemas.ResolveSchemaPath("schemas/profile.schema.json"); schemaPath != "" {
		if err := schemas.ValidateJSON(schemaPath, path); err != nil {
			var validationErr *schemas.ValidationError
			var schemaLoadErr *schemas.SchemaLoadError
			switch {
			case errors.As(err, &validationErr):
				return nil, fmt.Errorf("profile does not validate against schema: %w", err)
			case errors.As(err, &schemaLoadErr):
				_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate profile against schema (schema loading failed): %v\n", err)
			default:
				_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate profile against schema: %v\n", err)
			}
		}
	}

	var profile types.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &profile, nil
}

// writeSelection writes the selection result JSON and checks it against
// the selection schema when the schema file is present.
func writeSelection(path string, result *types.SelectionResult) error {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selection result: %w", err)
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	schemaPath := schemas.ResolveSchemaPath("schemas/selection.schema.json")
	if schemaPath == "" {
		return nil
	}
	if err := schemas.ValidateJSON(schemaPath, path); err != nil {
		var validationErr *schemas.ValidationError
		var schemaLoadErr *schemas.SchemaLoadError
		switch {
		case errors.As(err, &validationErr):
			return fmt.Errorf("generated JSON does not validate against schema: %w", err)
		case errors.As(err, &schemaLoadErr):
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate output against schema (schema loading failed): %v\n", err)
		default:
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate output against schema: %v\n", err)
		}
	}
	return nil
}

// saveArtifact persists one artifact, downgrading failure to a warning.
func saveArtifact(ctx context.Context, database *db.DB, runID uuid.UUID, step, category string, content any) {
	if err := database.SaveArtifact(ctx, runID, step, category, content); err != nil {
		fmt.Printf("Warning: Failed to save %s artifact: %v\n", step, err)
	}
}

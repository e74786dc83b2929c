package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/carematch/internal/db"
	"github.com/mwhitfield/carematch/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Discover and parse a care home's directory listing",
	Long: `Looks up one care home's directory listing via Google Custom Search, fetches the page, and extracts review figures, weekly fees, amenities and care attributes into a raw record that fusion can merge back into the candidate pool.

Requires Google Custom Search credentials (GOOGLE_SEARCH_API_KEY, GOOGLE_SEARCH_CX) and a Gemini API key (GEMINI_API_KEY) for attribute extraction. When a database is available (DATABASE_URL or --db-url), fetched pages are cached there so repeat runs stay off the directories.`,
	RunE: runEnrich,
}

var (
	enrichName       string
	enrichPostcode   string
	enrichLocationID string
	enrichWebsite    bool
	enrichOutput     string
	enrichUseBrowser bool
	enrichVerbose    bool
	enrichAPIKey     string
	enrichSearchKey  string
	enrichSearchCX   string
	enrichDBURL      string
	enrichRefresh    bool
)

func init() {
	enrichCmd.Flags().StringVarP(&enrichName, "name", "n", "", "Care home name to look up")
	enrichCmd.Flags().StringVar(&enrichPostcode, "postcode", "", "Care home postcode (narrows the search)")
	enrichCmd.Flags().StringVar(&enrichLocationID, "location-id", "", "Regulator location ID to echo into the output record (optional)")
	enrichCmd.Flags().BoolVar(&enrichWebsite, "website", false, "Enrich from the home's own website instead of its directory listing")
	enrichCmd.Flags().StringVarP(&enrichOutput, "out", "o", "", "Path to write the enriched record JSON (optional, defaults to stdout)")
	enrichCmd.Flags().BoolVar(&enrichUseBrowser, "use-browser", false, "Use headless browser for JS-rendered listing pages (requires Chrome)")
	enrichCmd.Flags().BoolVarP(&enrichVerbose, "verbose", "v", false, "Print discovery and extraction detail")
	enrichCmd.Flags().StringVar(&enrichAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	enrichCmd.Flags().StringVar(&enrichSearchKey, "search-api-key", "", "Google Custom Search API key (optional, defaults to GOOGLE_SEARCH_API_KEY env var)")
	enrichCmd.Flags().StringVar(&enrichSearchCX, "search-engine-id", "", "Google Custom Search engine ID (optional, defaults to GOOGLE_SEARCH_CX env var)")
	enrichCmd.Flags().StringVar(&enrichDBURL, "db-url", "", "PostgreSQL connection URL for the page cache (optional, defaults to DATABASE_URL env var)")
	enrichCmd.Flags().BoolVar(&enrichRefresh, "refresh", false, "Re-fetch pages even when a fresh cached copy exists")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(_ *cobra.Command, _ []string) error {
	if enrichName == "" {
		return fmt.Errorf("a care home name is required (use --name)")
	}
	if enrichPostcode == "" {
		return fmt.Errorf("a postcode is required (use --postcode)")
	}

	apiKey := enrichAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	searchKey := enrichSearchKey
	if searchKey == "" {
		searchKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	searchCX := enrichSearchCX
	if searchCX == "" {
		searchCX = os.Getenv("GOOGLE_SEARCH_CX")
	}
	if searchKey == "" || searchCX == "" {
		return fmt.Errorf("GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX environment variables (or the --search-api-key/--search-engine-id flags) are required")
	}

	ctx := context.Background()

	// The page cache is optional; enrichment works without a database.
	dbURL := enrichDBURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	var store *db.DB
	if dbURL != "" {
		var err error
		store, err = db.Connect(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()

		// Opportunistic maintenance sweep.
		if pruned, err := store.DeleteExpiredListingPages(ctx); err == nil && pruned > 0 && enrichVerbose {
			fmt.Printf("Pruned %d expired cached pages\n", pruned)
		}
	}

	enricher, err := enrich.New(ctx, enrich.Options{
		SearchAPIKey: searchKey,
		SearchCX:     searchCX,
		LLMAPIKey:    apiKey,
		UseBrowser:   enrichUseBrowser,
		Verbose:      enrichVerbose,
		Store:        store,
		RefreshCache: enrichRefresh,
	})
	if err != nil {
		return fmt.Errorf("failed to create enricher: %w", err)
	}
	defer func() { _ = enricher.Close() }()

	target := enrich.Target{
		LocationID: enrichLocationID,
		Name:       enrichName,
		Postcode:   enrichPostcode,
	}

	enrichFn := enricher.Home
	if enrichWebsite {
		enrichFn = enricher.HomeWebsite
	}
	record, err := enrichFn(ctx, target)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal enriched record: %w", err)
	}

	if enrichOutput != "" {
		if err := os.WriteFile(enrichOutput, jsonBytes, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Successfully enriched %s\n", enrichName)
		fmt.Printf("Output: %s\n", enrichOutput)
		return nil
	}

	fmt.Println(string(jsonBytes))
	return nil
}

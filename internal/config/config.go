// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config carries the CLI settings a run can read from a JSON file. Every
// field is optional; values given on the command line override the file.
type Config struct {
	// Paths
	Primary   string `json:"primary,omitempty"`   // Path to the regulator dataset (CSV or JSON)
	Secondary string `json:"secondary,omitempty"` // Path to the directory dataset (CSV or JSON)
	Ruleset   string `json:"ruleset,omitempty"`   // Path to the matching ruleset JSON
	Profile   string `json:"profile,omitempty"`   // Path to the resident profile JSON
	Output    string `json:"output,omitempty"`    // Path to write the selection result JSON

	// Matching
	TopK              int  `json:"top_k,omitempty"`               // Shortlist length
	MinShortlist      int  `json:"min_shortlist,omitempty"`       // Fewest scored candidates before the run reports insufficiency
	Workers           int  `json:"workers,omitempty"`             // Concurrent scoring workers (0 = one per CPU)
	KeepSecondaryOnly bool `json:"keep_secondary_only,omitempty"` // Admit directory records the regulator has never seen

	// Enrichment credentials
	APIKey         string `json:"api_key,omitempty"`          // Gemini API key
	SearchAPIKey   string `json:"search_api_key,omitempty"`   // Google Custom Search API key
	SearchEngineID string `json:"search_engine_id,omitempty"` // Google Custom Search engine ID

	// Behavior
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Use headless browser for JS-rendered listing pages
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
}

// LoadConfig reads and decodes a JSON config file. Relative paths resolve
// against the working directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate rejects negative counts and dangling file paths. Required-field
// checks happen after flag merging, not here.
func (c *Config) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"top_k", c.TopK},
		{"min_shortlist", c.MinShortlist},
		{"workers", c.Workers},
	}
	for _, n := range counts {
		if n.value < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", n.name)
		}
	}

	inputs := []struct {
		label string
		path  string
	}{
		{"primary dataset", c.Primary},
		{"secondary dataset", c.Secondary},
		{"ruleset file", c.Ruleset},
		{"profile file", c.Profile},
	}
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		if _, err := os.Stat(in.path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s not found: %s", in.label, in.path)
		}
	}

	return nil
}

// MergeWithDefaults fills zero-valued fields from defaults and returns the
// combined Config. Bools never merge: false is indistinguishable from unset,
// so CLI flags always win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	merged := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	fill(&merged.Primary, defaults.Primary)
	fill(&merged.Secondary, defaults.Secondary)
	fill(&merged.Ruleset, defaults.Ruleset)
	fill(&merged.Profile, defaults.Profile)
	fill(&merged.Output, defaults.Output)
	fill(&merged.APIKey, defaults.APIKey)
	fill(&merged.SearchAPIKey, defaults.SearchAPIKey)
	fill(&merged.SearchEngineID, defaults.SearchEngineID)
	fill(&merged.DatabaseURL, defaults.DatabaseURL)

	fillInt(&merged.TopK, defaults.TopK)
	fillInt(&merged.MinShortlist, defaults.MinShortlist)
	fillInt(&merged.Workers, defaults.Workers)

	return merged
}

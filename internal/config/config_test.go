package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"primary": "data/locations.csv",
		"ruleset": "config/ruleset.json",
		"top_k": 5,
		"workers": 4,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "data/locations.csv", cfg.Primary)
	assert.Equal(t, "config/ruleset.json", cfg.Ruleset)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Failures(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "invalid JSON",
			path:    func(t *testing.T) string { return writeConfig(t, `{ invalid json }`) },
			wantErr: "failed to parse config JSON",
		},
		{
			name:    "file not found",
			path:    func(t *testing.T) string { return "/nonexistent/path/config.json" },
			wantErr: "failed to read config file",
		},
		{
			name:    "empty path",
			path:    func(t *testing.T) string { return "" },
			wantErr: "config path is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path(t))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NegativeValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"top_k", Config{TopK: -1}},
		{"min_shortlist", Config{MinShortlist: -3}},
		{"workers", Config{Workers: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestValidate_MissingDatasetFile(t *testing.T) {
	cfg := &Config{
		Primary: filepath.Join(t.TempDir(), "does-not-exist.csv"),
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary dataset not found")
}

func TestValidate_ValidConfig(t *testing.T) {
	primary := filepath.Join(t.TempDir(), "locations.csv")
	require.NoError(t, os.WriteFile(primary, []byte("Location Name\nSunrise Lodge\n"), 0o644))

	cfg := &Config{
		Primary: primary,
		TopK:    10,
		Workers: 8,
	}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		Primary:      "data/locations.csv",
		Secondary:    "data/directory.json",
		Ruleset:      "config/ruleset.json",
		TopK:         10,
		MinShortlist: 3,
	}
	partial := Config{
		Primary: "custom/locations.csv",
		Profile: "profiles/margaret.json",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Set fields survive, empty ones fill from defaults.
	assert.Equal(t, "custom/locations.csv", merged.Primary)
	assert.Equal(t, "profiles/margaret.json", merged.Profile)
	assert.Equal(t, "data/directory.json", merged.Secondary)
	assert.Equal(t, "config/ruleset.json", merged.Ruleset)
	assert.Equal(t, 10, merged.TopK)
	assert.Equal(t, 3, merged.MinShortlist)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		Ruleset: "config/ruleset.json",
		TopK:    7,
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "config/ruleset.json", merged.Ruleset)
	assert.Equal(t, 7, merged.TopK)
}

package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig holds the budget for one endpoint. Paths ending in "/"
// prefix-match, so "/api/v1/runs/" covers every run subresource.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // burst capacity, defaults to Limit when 0
}

// LoadConfig builds rate limiting configuration from environment
// variables, falling back to the built-in endpoint budgets.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Allowlist:       parseIPList(os.Getenv("RATE_LIMIT_ALLOWLIST")),
		Denylist:        parseIPList(os.Getenv("RATE_LIMIT_DENYLIST")),
		Endpoints:       DefaultEndpoints(),
	}
}

// DefaultEndpoints returns the built-in endpoint budgets. Matching scores
// the whole candidate pool per request, so it gets a far tighter budget
// than the read endpoints, which fall through to the default limit.
func DefaultEndpoints() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/v1/match", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/v1/runs/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// The env readers treat unset and unparseable the same way. Atoi and the
// Parse functions all reject the empty string, so no separate check needed.

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}

// parseIPList splits a comma-separated address list into a set. Blank
// entries are dropped, so trailing commas and stray spaces are harmless.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, entry := range strings.Split(list, ",") {
		if addr := strings.TrimSpace(entry); addr != "" {
			set[addr] = true
		}
	}
	return set
}

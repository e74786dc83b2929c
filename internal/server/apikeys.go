package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwhitfield/carematch/internal/config"
)

// APIKeyVerifier checks presented API keys against bcrypt hashes fixed at
// deploy time. Keys are registered as name:hash pairs so logs can name
// the calling client without ever holding the key itself.
type APIKeyVerifier struct {
	cfg    *config.APIKeyConfig
	hashes map[string]string // client name -> bcrypt hash
}

// NewAPIKeyVerifier parses a comma-separated list of name:hash entries.
// Bcrypt hashes never contain ':' or ',', so the format is unambiguous.
func NewAPIKeyVerifier(cfg *config.APIKeyConfig, entries string) (*APIKeyVerifier, error) {
	hashes := make(map[string]string)
	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, hash, ok := strings.Cut(entry, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("malformed API key entry %q (want name:bcrypt-hash)", entry)
		}
		if _, dup := hashes[name]; dup {
			return nil, fmt.Errorf("duplicate API key name %q", name)
		}
		hashes[name] = hash
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("no API key entries configured")
	}
	return &APIKeyVerifier{cfg: cfg, hashes: hashes}, nil
}

// LoadAPIKeyVerifier builds a verifier from the API_KEY_HASHES environment
// variable. It returns (nil, nil) when no keys are configured.
func LoadAPIKeyVerifier() (*APIKeyVerifier, error) {
	entries := os.Getenv("API_KEY_HASHES")
	if entries == "" {
		return nil, nil
	}
	cfg, err := config.NewAPIKeyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading API key config: %w", err)
	}
	return NewAPIKeyVerifier(cfg, entries)
}

// VerifyAPIKey checks a presented key against every registered hash and
// returns the matching client name. Linear bcrypt comparison is fine for
// the handful of keys a deployment carries.
func (v *APIKeyVerifier) VerifyAPIKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for name, hash := range v.hashes {
		if v.cfg.VerifyKey(key, hash) {
			return name, true
		}
	}
	return "", false
}

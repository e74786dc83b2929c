package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyConfig hashes and verifies the static API keys the server accepts.
// Keys are stored bcrypt-hashed; an optional pepper is appended before
// hashing so a leaked hash table is useless without it.
type APIKeyConfig struct {
	BcryptCost int
	Pepper     string
}

// NewAPIKeyConfig reads BCRYPT_COST (default 12) and the optional
// API_KEY_PEPPER from the environment.
func NewAPIKeyConfig() (*APIKeyConfig, error) {
	cfg := &APIKeyConfig{BcryptCost: 12, Pepper: os.Getenv("API_KEY_PEPPER")}

	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
		}
		cfg.BcryptCost = cost
	}

	if cfg.BcryptCost < 10 || cfg.BcryptCost > 14 {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cfg.BcryptCost)
	}
	return cfg, nil
}

func (c *APIKeyConfig) peppered(key string) []byte {
	return []byte(key + c.Pepper)
}

// HashKey bcrypt-hashes an API key for storage.
func (c *APIKeyConfig) HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(c.peppered(key), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey checks a presented API key against a stored hash.
func (c *APIKeyConfig) VerifyKey(key, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(key)) == nil
}

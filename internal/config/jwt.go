// Package config provides JWT service credential configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// HS256 verification keys shorter than the hash output are brute-forceable.
const minJWTSecretLen = 32

// JWTConfig holds the signing secret and token lifetime for API clients.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds the JWT configuration from the environment:
// JWT_SECRET (required, 32+ bytes) and JWT_EXPIRATION_HOURS (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	switch {
	case secret == "":
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	case len(secret) < minJWTSecretLen:
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLen, len(secret))
	}

	hours := 24
	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		hours = parsed
	}
	if hours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", hours)
	}

	return &JWTConfig{
		Secret:          secret,
		ExpirationHours: hours,
	}, nil
}

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 32 bytes, the minimum the loader accepts.
var testSecret = strings.Repeat("s", 32)

func TestNewJWTConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours, "unset expiration defaults to 24 hours")
}

func TestNewJWTConfig_CustomExpiration(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		hours int
	}{
		{name: "half day", raw: "12", hours: 12},
		{name: "minimum one hour", raw: "1", hours: 1},
		{name: "one week", raw: "168", hours: 168},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.raw)

			cfg, err := NewJWTConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.hours, cfg.ExpirationHours)
		})
	}
}

func TestNewJWTConfig_RejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := NewJWTConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewJWTConfig_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "letmein")

	cfg, err := NewJWTConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestNewJWTConfig_RejectsBadExpiration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "non-numeric", raw: "soon"},
		{name: "zero", raw: "0"},
		{name: "negative", raw: "-6"},
		{name: "fractional", raw: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.raw)

			cfg, err := NewJWTConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "JWT_EXPIRATION_HOURS")
		})
	}
}

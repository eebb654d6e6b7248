package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_JWTFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "a-sufficiently-long-secret")
	t.Setenv("JWT_EXPIRATION_HOURS", "48")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "a-sufficiently-long-secret", cfg.Auth.Secret)
	assert.Equal(t, 48, cfg.Auth.ExpirationHours)
}

func TestJWTConfig_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     JWTConfig
		wantErr string
	}{
		{"valid", JWTConfig{Secret: "0123456789abcdef", ExpirationHours: 1}, ""},
		{"empty secret", JWTConfig{ExpirationHours: 24}, "cannot be empty"},
		{"short secret", JWTConfig{Secret: "abc", ExpirationHours: 24}, "at least 16"},
		{"zero expiration", JWTConfig{Secret: "0123456789abcdef"}, "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.normalize()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

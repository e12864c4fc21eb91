package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecretOutsideDevMode(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEV_MODE", "false")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDevModeFallsBackToDefaultSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DevMode)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("DEV_MODE", "false")
	t.Setenv("API_PORT", "9999")
	t.Setenv("OTP_TTL", "10m")
	t.Setenv("CLIENT_URL", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "super-secret", cfg.JWTSecret)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "https://app.example.com", cfg.ClientOrigin)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("DEV_MODE", "")
	t.Setenv("API_PORT", "")
	t.Setenv("OTP_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.False(t, cfg.DevMode)
}

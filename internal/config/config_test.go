package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyDatabaseURL(t *testing.T) {
	// Config loads successfully even without DATABASE_URL set.
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DatabaseURL)
}

func TestLoad_WithDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/claw")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "postgres://localhost:5432/claw", cfg.DatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("LIGHTNING_API_URL")
	os.Unsetenv("GITHUB_API_URL")
	os.Unsetenv("API_KEY_TTL_DAYS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.getalby.com", cfg.LightningAPIURL)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Equal(t, 365, cfg.APIKeyTTLDays)
}

func TestLoad_APIKeyTTLDays_Invalid(t *testing.T) {
	t.Setenv("API_KEY_TTL_DAYS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.APIKeyTTLDays)
}

func TestValidate_ClawAPI_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("claw-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_ClawAPI_AllPresent(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/claw"}
	assert.NoError(t, cfg.Validate("claw-api"))
}

func TestValidate_UnknownComponent(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate("something-else"))
}

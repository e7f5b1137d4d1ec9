package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	PublicBaseURL  string

	// Lightning payment provider (Alby-compatible REST API).
	LightningAPIURL string
	LightningToken  string

	// GitHub API, used to verify claimed handles at registration.
	GitHubAPIURL string

	// API key lifetime in days. Zero means keys never expire.
	APIKeyTTLDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ServiceName:     getEnv("SERVICE_NAME", "claw-api"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		LightningAPIURL: getEnv("LIGHTNING_API_URL", "https://api.getalby.com"),
		LightningToken:  getEnv("LIGHTNING_API_TOKEN", ""),
		GitHubAPIURL:    getEnv("GITHUB_API_URL", "https://api.github.com"),
		APIKeyTTLDays:   getEnvInt("API_KEY_TTL_DAYS", 365),
	}

	return cfg, nil
}

// Validate checks that the variables required by the given component are set.
func (c *Config) Validate(component string) error {
	switch component {
	case "claw-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", component)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

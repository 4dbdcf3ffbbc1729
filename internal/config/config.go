// Package config loads service settings from environment variables with
// defaults suitable for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opendxi/backend/internal/apperrors"
)

// Settings holds all runtime configuration.
type Settings struct {
	// GitHub
	GitHubOrg   string
	GitHubToken string

	// Sprint cadence
	SprintStartDate    string
	SprintDurationDays int

	// Store
	DataDir string

	// Pagination safety limit: once exhausted the fetcher stops paging and
	// proceeds with what it has rather than erroring.
	MaxPagesPerQuery int

	// Outbound HTTP
	RequestTimeout time.Duration
	RequestsPerSec float64
	RequestBurst   int

	// Server
	Port        string
	CORSOrigins []string
}

// Load builds Settings from the environment.
func Load() Settings {
	return Settings{
		GitHubOrg:          os.Getenv("GITHUB_ORG"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		SprintStartDate:    getEnvOrDefault("SPRINT_START_DATE", "2026-01-07"),
		SprintDurationDays: getEnvInt("SPRINT_DURATION_DAYS", 14),
		DataDir:            getEnvOrDefault("DATA_DIR", ".data"),
		MaxPagesPerQuery:   getEnvInt("MAX_PAGES_PER_QUERY", 10),
		RequestTimeout:     time.Duration(getEnvInt("GITHUB_TIMEOUT_SECONDS", 30)) * time.Second,
		RequestsPerSec:     getEnvFloat("GITHUB_REQUESTS_PER_SEC", 5),
		RequestBurst:       getEnvInt("GITHUB_REQUEST_BURST", 5),
		Port:               getEnvOrDefault("PORT", "8000"),
		CORSOrigins:        splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
	}
}

// ValidateGitHub fails fast when the fetcher's preconditions are missing.
func (s Settings) ValidateGitHub() error {
	if s.GitHubOrg == "" {
		return apperrors.NewConfigurationError("GITHUB_ORG is not configured")
	}
	if s.GitHubToken == "" {
		return apperrors.NewConfigurationError("GITHUB_TOKEN is not configured")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

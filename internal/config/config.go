// Package config provides application configuration loaded from environment
// variables and comparison suites loaded from YAML files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	LogLevel    string
	Timeout     time.Duration
	Concurrency int
	// RateLimit is requests per second per host; 0 means unlimited.
	RateLimit float64

	OldBaseURL string
	NewBaseURL string
	ReportDir  string

	OTelEnabled bool

	// CloudWatch publication of run summaries; disabled when the namespace is empty.
	CloudWatchNamespace string
	AWSRegion           string
	AWSProfile          string
	CrossAccountRole    string
}

// LoadFromEnv reads configuration from environment variables with sensible defaults.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		LogLevel:            envOr("PARITY_LOG_LEVEL", "info"),
		OldBaseURL:          os.Getenv("PARITY_OLD_BASE_URL"),
		NewBaseURL:          os.Getenv("PARITY_NEW_BASE_URL"),
		ReportDir:           envOr("PARITY_REPORT_DIR", "."),
		CloudWatchNamespace: os.Getenv("PARITY_CLOUDWATCH_NAMESPACE"),
		AWSRegion:           envOr("AWS_REGION", "us-east-1"),
		AWSProfile:          os.Getenv("AWS_PROFILE"),
		CrossAccountRole:    os.Getenv("PARITY_CROSS_ACCOUNT_ROLE"),
	}

	var err error
	if cfg.Timeout, err = time.ParseDuration(envOr("PARITY_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("config: invalid PARITY_TIMEOUT: %w", err)
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("config: PARITY_TIMEOUT must be positive, got %s", cfg.Timeout)
	}

	if cfg.Concurrency, err = strconv.Atoi(envOr("PARITY_CONCURRENCY", "1")); err != nil {
		return Config{}, fmt.Errorf("config: invalid PARITY_CONCURRENCY: %w", err)
	}
	if cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("config: PARITY_CONCURRENCY must be at least 1, got %d", cfg.Concurrency)
	}

	if cfg.RateLimit, err = strconv.ParseFloat(envOr("PARITY_RATE_LIMIT", "0"), 64); err != nil {
		return Config{}, fmt.Errorf("config: invalid PARITY_RATE_LIMIT: %w", err)
	}
	if cfg.RateLimit < 0 {
		return Config{}, fmt.Errorf("config: PARITY_RATE_LIMIT must not be negative")
	}

	if cfg.OTelEnabled, err = parseBool(os.Getenv("PARITY_OTEL_ENABLED")); err != nil {
		return Config{}, fmt.Errorf("config: invalid PARITY_OTEL_ENABLED: %w", err)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

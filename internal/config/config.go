// Package config loads batch settings from environment variables, with
// command-line overrides applied by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Render modes. Hourly emits one heatmap per forecast hour into a per-archive
// subdirectory; single pools all hours into one heatmap per archive.
const (
	ModeHourly = "hourly"
	ModeSingle = "single"
)

// Config holds all converter settings, populated from environment variables.
type Config struct {
	SourceDir string
	ResultDir string
	WorkDir   string

	RenderMode string

	CleanupMaxRetries int
	CleanupRetryDelay time.Duration
	ExtractTimeout    time.Duration

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Flag overrides happen after Load; call Validate once they are
// applied.
func Load() (*Config, error) {
	cleanupRetries, err := parsePositiveInt("CLEANUP_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	cleanupDelay, err := parsePositiveDuration("CLEANUP_RETRY_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	extractTimeout, err := parsePositiveDuration("EXTRACT_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceDir:         os.Getenv("SOURCE_DIR"),
		ResultDir:         envOrDefault("RESULT_DIR", "result"),
		WorkDir:           envOrDefault("WORK_DIR", os.TempDir()),
		RenderMode:        envOrDefault("RENDER_MODE", ModeHourly),
		CleanupMaxRetries: cleanupRetries,
		CleanupRetryDelay: cleanupDelay,
		ExtractTimeout:    extractTimeout,
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
	}
	return cfg, nil
}

// Validate checks the final configuration after flag overrides.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("source directory is required (SOURCE_DIR or -data)")
	}
	if c.ResultDir == "" {
		return errors.New("result directory must not be empty")
	}
	if c.RenderMode != ModeHourly && c.RenderMode != ModeSingle {
		return fmt.Errorf("invalid RENDER_MODE %q: want %q or %q", c.RenderMode, ModeHourly, ModeSingle)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive integer", key, s)
	}
	return n, nil
}

func parsePositiveDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration", key, s)
	}
	return d, nil
}

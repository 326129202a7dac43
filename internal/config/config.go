// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default limits for discovery and extraction.
const (
	DefaultMaxResults      = 50
	DefaultMaxScrape       = 20
	DefaultHostConcurrency = 2
	DefaultHostDelay       = time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or environment variables.
type Config struct {
	// Paths
	SeedsFile string `json:"seeds_file,omitempty"` // Path to institution seeds JSON file

	// Behavior
	DatabaseURL      string `json:"database_url,omitempty"`       // PostgreSQL connection URL
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`     // Gemini API key for structured extraction
	MaxScrape        int    `json:"max_scrape,omitempty"`         // Maximum queued jobs processed per run
	HostConcurrency  int    `json:"host_concurrency,omitempty"`   // Maximum in-flight fetches per host
	HostDelaySeconds int    `json:"host_delay_seconds,omitempty"` // Minimum delay between requests to one host
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`    // Per-request fetch timeout
	Verbose          bool   `json:"verbose,omitempty"`            // Print detailed progress information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills unset credentials from the environment.
func (c *Config) FromEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.MaxScrape < 0 {
		return fmt.Errorf("config error: 'max_scrape' must be non-negative")
	}
	if c.HostConcurrency < 0 {
		return fmt.Errorf("config error: 'host_concurrency' must be non-negative")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.SeedsFile != "" {
		if _, err := os.Stat(c.SeedsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: seeds file not found: %s", c.SeedsFile)
		}
	}
	return nil
}

// RequestTimeout returns the fetch timeout, applying the default when unset.
func (c *Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultRequestTimeout
}

// HostDelay returns the per-host politeness delay, applying the default when
// unset.
func (c *Config) HostDelay() time.Duration {
	if c.HostDelaySeconds > 0 {
		return time.Duration(c.HostDelaySeconds) * time.Second
	}
	return DefaultHostDelay
}

// MergeWithDefaults returns a new Config with zero-value fields filled from
// defaults. This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.SeedsFile == "" {
		result.SeedsFile = defaults.SeedsFile
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.MaxScrape == 0 {
		result.MaxScrape = defaults.MaxScrape
	}
	if result.HostConcurrency == 0 {
		result.HostConcurrency = defaults.HostConcurrency
	}
	if result.HostDelaySeconds == 0 {
		result.HostDelaySeconds = defaults.HostDelaySeconds
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

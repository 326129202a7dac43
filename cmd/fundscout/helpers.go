package main

import (
	"fmt"
	"time"

	"github.com/fundscout/fundscout/internal/config"
	"github.com/fundscout/fundscout/internal/fetch"
)

// loadRunConfig resolves the effective configuration: explicit config file if
// given, then environment fallbacks for credentials, then validation.
func loadRunConfig(configPath string) (*config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requireDatabaseURL fails with a uniform message when no connection string
// was resolved from flags, config file or environment.
func requireDatabaseURL(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL required: set --config, DATABASE_URL environment variable, or 'database_url' in the config file")
	}
	return nil
}

// loadSeedsFiltered loads the seed registry and optionally narrows it to one
// institution.
func loadSeedsFiltered(path, institutionID string) ([]config.Seed, error) {
	seeds, err := config.LoadSeeds(path)
	if err != nil {
		return nil, err
	}
	if institutionID == "" {
		return seeds, nil
	}
	var filtered []config.Seed
	for _, s := range seeds {
		if s.InstitutionID == institutionID {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no seed found for institution %q in %s", institutionID, path)
	}
	return filtered, nil
}

// fetchOptions builds per-request fetch options from the resolved config.
func fetchOptions(cfg *config.Config) *fetch.Options {
	opts := fetch.DefaultOptions()
	if cfg.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return opts
}

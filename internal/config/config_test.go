package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempFile(t, "config.json", `{
		"database_url": "postgres://localhost/fundscout",
		"max_scrape": 5,
		"timeout_seconds": 8,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/fundscout", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.MaxScrape)
	assert.Equal(t, 8*time.Second, cfg.RequestTimeout())
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := writeTempFile(t, "bad.json", `{not json`)
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{MaxScrape: -1}
	assert.Error(t, cfg.Validate())

	cfg = Config{TimeoutSeconds: -5}
	assert.Error(t, cfg.Validate())

	cfg = Config{SeedsFile: filepath.Join(t.TempDir(), "nope.json")}
	assert.Error(t, cfg.Validate())

	cfg = Config{MaxScrape: 10}
	assert.NoError(t, cfg.Validate())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout())
	assert.Equal(t, DefaultHostDelay, cfg.HostDelay())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{MaxScrape: 3}
	defaults := Config{MaxScrape: 20, DatabaseURL: "postgres://default", Verbose: true}

	merged := cfg.MergeWithDefaults(defaults)
	assert.Equal(t, 3, merged.MaxScrape, "explicit value wins")
	assert.Equal(t, "postgres://default", merged.DatabaseURL)
	assert.True(t, merged.Verbose)
}

func TestLoadSeeds(t *testing.T) {
	path := writeTempFile(t, "seeds.json", `[
		{
			"institution_id": "aws",
			"institution_name": "Austria Wirtschaftsservice",
			"seed_url": "https://www.aws.at/foerderungen",
			"keywords": ["foerderung", "grant"],
			"max_results": 25
		},
		{
			"institution_id": "ffg",
			"institution_name": "FFG",
			"seed_url": "https://www.ffg.at/programme"
		}
	]`)

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, []string{"foerderung", "grant"}, seeds[0].Keywords)
	assert.Equal(t, 25, seeds[0].MaxResults)

	// Defaults applied where the entry omitted them.
	assert.Equal(t, DefaultMaxResults, seeds[1].MaxResults)
	assert.Equal(t, DefaultKeywords(), seeds[1].Keywords)
}

func TestLoadSeedsRejectsInvalid(t *testing.T) {
	path := writeTempFile(t, "seeds.json", `[
		{"institution_id": "x", "institution_name": "X", "seed_url": "not-a-url"}
	]`)

	_, err := LoadSeeds(path)
	assert.Error(t, err)
}

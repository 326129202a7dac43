package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fundscout/fundscout/internal/cache"
	"github.com/fundscout/fundscout/internal/config"
	"github.com/fundscout/fundscout/internal/corpus"
	"github.com/fundscout/fundscout/internal/extract"
	"github.com/fundscout/fundscout/internal/fetch"
	"github.com/fundscout/fundscout/internal/llm"
	"github.com/fundscout/fundscout/internal/observability"
	"github.com/fundscout/fundscout/internal/state"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract program data from queued URLs",
	Long:  "Processes queued crawl jobs: fetches each page, runs structured extraction (with a persistent per-URL result cache), categorizes requirements, and upserts program records into the corpus. Job failures are recorded and never abort the batch.",
	RunE:  runScrape,
}

var (
	scrapeConfigPath  string
	scrapeInstitution string
	scrapeMax         int
	scrapeWorkers     int
	scrapeAPIKey      string
	scrapeVerbose     bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeConfigPath, "config", "c", "", "Path to config JSON file")
	scrapeCmd.Flags().StringVar(&scrapeInstitution, "institution", "", "Only process jobs for this institution id")
	scrapeCmd.Flags().IntVar(&scrapeMax, "max", 0, "Maximum jobs to process this run (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeWorkers, "workers", 0, "Parallel workers across hosts (default 4)")
	scrapeCmd.Flags().StringVar(&scrapeAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	scrapeCmd.Flags().BoolVarP(&scrapeVerbose, "verbose", "v", false, "Print a run summary box")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(_ *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(scrapeConfigPath)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	apiKey := scrapeAPIKey
	if apiKey == "" {
		apiKey = cfg.GeminiAPIKey
	}
	if apiKey == "" {
		return fmt.Errorf("API key required: set --api-key flag or GEMINI_API_KEY environment variable")
	}

	limit := scrapeMax
	if limit <= 0 {
		limit = cfg.MaxScrape
	}
	if limit <= 0 {
		limit = config.DefaultMaxScrape
	}

	ctx := context.Background()

	stateStore, err := state.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to crawl state: %w", err)
	}
	defer stateStore.Close()
	if err := stateStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure crawl state schema: %w", err)
	}

	programStore, err := corpus.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to program corpus: %w", err)
	}
	defer programStore.Close()
	if err := programStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure corpus schema: %w", err)
	}

	cacheStore, err := cache.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to extraction cache: %w", err)
	}
	if err := cacheStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure cache schema: %w", err)
	}
	resultCache := cache.NewService(cacheStore)
	if err := resultCache.Open(ctx); err != nil {
		return fmt.Errorf("failed to open extraction cache: %w", err)
	}
	defer resultCache.Close()

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}
	defer func() { _ = client.Close() }()

	opts := extract.DefaultOptions()
	opts.FetchOptions = fetchOptions(cfg)
	opts.HostDelay = cfg.HostDelay()
	if cfg.HostConcurrency > 0 {
		opts.HostConcurrency = cfg.HostConcurrency
	}
	if scrapeWorkers > 0 {
		opts.Workers = scrapeWorkers
	}

	extractor := extract.New(fetch.URL, resultCache, client, stateStore, programStore, opts)

	started := time.Now()
	summary, err := extractor.Run(ctx, scrapeInstitution, limit)
	if err != nil {
		return fmt.Errorf("extraction run failed: %w", err)
	}
	resultCache.Flush()

	if scrapeVerbose || cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintExtractionSummary(summary)
	}
	_, _ = fmt.Fprintf(os.Stdout, "Processed %d jobs (%d done, %d failed, %d cache hits) in %s\n",
		summary.Processed, summary.Done, summary.Failed, summary.CacheHits, time.Since(started).Round(time.Millisecond))

	return nil
}

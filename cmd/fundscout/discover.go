package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundscout/fundscout/internal/crawl"
	"github.com/fundscout/fundscout/internal/state"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover candidate funding program URLs from institution seeds",
	Long:  "Fetches each institution's seed page, filters outgoing links by funding keywords and blacklist, and merges survivors into the crawl state. Re-runs are idempotent: only URLs the institution has never seen are queued.",
	RunE:  runDiscover,
}

var (
	discoverSeedsFile   string
	discoverConfigPath  string
	discoverInstitution string
)

func init() {
	discoverCmd.Flags().StringVarP(&discoverSeedsFile, "seeds", "s", "", "Path to institution seeds JSON file (required)")
	discoverCmd.Flags().StringVarP(&discoverConfigPath, "config", "c", "", "Path to config JSON file")
	discoverCmd.Flags().StringVar(&discoverInstitution, "institution", "", "Only discover for this institution id")

	if err := discoverCmd.MarkFlagRequired("seeds"); err != nil {
		panic(fmt.Sprintf("failed to mark seeds flag as required: %v", err))
	}

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(_ *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(discoverConfigPath)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	seeds, err := loadSeedsFiltered(discoverSeedsFile, discoverInstitution)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := state.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to crawl state: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure crawl state schema: %w", err)
	}

	results := crawl.RunDiscovery(ctx, store, seeds, fetchOptions(cfg))
	for _, r := range results {
		_, _ = fmt.Fprintf(os.Stdout, "%s: %d candidates, %d newly queued\n", r.InstitutionID, r.Candidates, r.NewlyQueued)
	}

	return nil
}

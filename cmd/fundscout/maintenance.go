package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundscout/fundscout/internal/observability"
	"github.com/fundscout/fundscout/internal/state"
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Inspect and reset crawl state",
	Long:  "Maintenance operations on the crawl state. Every destructive operation snapshots the state into a backup row before mutating, and prints before/after counters.",
}

var maintenanceConfigPath string

var maintenanceResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all crawl state (jobs and seen URLs)",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMaintenanceOp(func(ctx context.Context, store *state.Store) (*state.MaintenanceResult, error) {
			return store.Reset(ctx)
		})
	},
}

var maintenanceCleanJobsCmd = &cobra.Command{
	Use:   "clean-jobs",
	Short: "Drop finished jobs, keeping the queue and the seen set",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMaintenanceOp(func(ctx context.Context, store *state.Store) (*state.MaintenanceResult, error) {
			return store.CleanJobs(ctx)
		})
	},
}

var maintenanceCleanSeenCmd = &cobra.Command{
	Use:   "clean-seen",
	Short: "Clear the seen-URL dedup memory, keeping jobs",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMaintenanceOp(func(ctx context.Context, store *state.Store) (*state.MaintenanceResult, error) {
			return store.CleanSeen(ctx)
		})
	},
}

var maintenanceRequeueInstitution string

var maintenanceRequeueCmd = &cobra.Command{
	Use:   "requeue-failed",
	Short: "Put failed jobs back on the queue for another attempt",
	RunE:  runMaintenanceRequeue,
}

var maintenanceStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-institution crawl state counters",
	RunE:  runMaintenanceStats,
}

func init() {
	maintenanceCmd.PersistentFlags().StringVarP(&maintenanceConfigPath, "config", "c", "", "Path to config JSON file")

	maintenanceCmd.AddCommand(maintenanceResetCmd)
	maintenanceCmd.AddCommand(maintenanceCleanJobsCmd)
	maintenanceCmd.AddCommand(maintenanceCleanSeenCmd)
	maintenanceRequeueCmd.Flags().StringVar(&maintenanceRequeueInstitution, "institution", "", "Only requeue jobs for this institution id")
	maintenanceCmd.AddCommand(maintenanceRequeueCmd)
	maintenanceCmd.AddCommand(maintenanceStatsCmd)

	rootCmd.AddCommand(maintenanceCmd)
}

// openState resolves config and opens the crawl state store.
func openState(ctx context.Context) (*state.Store, error) {
	cfg, err := loadRunConfig(maintenanceConfigPath)
	if err != nil {
		return nil, err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return nil, err
	}

	store, err := state.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to crawl state: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure crawl state schema: %w", err)
	}
	return store, nil
}

func runMaintenanceOp(op func(context.Context, *state.Store) (*state.MaintenanceResult, error)) error {
	ctx := context.Background()
	store, err := openState(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := op(ctx, store)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintMaintenanceResult(result)
	return nil
}

func runMaintenanceRequeue(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, err := openState(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.RequeueFailed(ctx, maintenanceRequeueInstitution)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Requeued %d failed jobs\n", n)
	return nil
}

func runMaintenanceStats(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, err := openState(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No crawl state yet.")
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintCrawlStats(stats)
	return nil
}

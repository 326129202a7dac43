package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundscout/fundscout/internal/corpus"
	"github.com/fundscout/fundscout/internal/match"
	"github.com/fundscout/fundscout/internal/observability"
	"github.com/fundscout/fundscout/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match the program corpus against user answers",
	Long:  "Applies hard eligibility filters (location, funding amount tolerance, co-financing, revenue stage) to every program in the corpus and ranks the survivors. Answers are read from a JSON file.",
	RunE:  runMatch,
}

var (
	matchConfigPath  string
	matchAnswersPath string
	matchJSON        bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchConfigPath, "config", "c", "", "Path to config JSON file")
	matchCmd.Flags().StringVarP(&matchAnswersPath, "answers", "a", "", "Path to user answers JSON file (required)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Emit the match result as JSON")

	if err := matchCmd.MarkFlagRequired("answers"); err != nil {
		panic(fmt.Sprintf("failed to mark answers flag as required: %v", err))
	}

	rootCmd.AddCommand(matchCmd)
}

// readAnswers loads and validates a user answers file.
func readAnswers(path string) (*types.UserAnswers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file %s: %w", path, err)
	}
	var answers types.UserAnswers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers JSON: %w", err)
	}
	if err := answers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid answers: %w", err)
	}
	return &answers, nil
}

func runMatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(matchConfigPath)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	answers, err := readAnswers(matchAnswersPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	programStore, err := corpus.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to program corpus: %w", err)
	}
	defer programStore.Close()

	programs, err := programStore.ListPrograms(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load programs: %w", err)
	}

	result, err := match.Run(answers, programs)
	if err != nil {
		if errors.Is(err, match.ErrInsufficientData) {
			_, _ = fmt.Fprintln(os.Stdout, "The program corpus is empty. Run discover and scrape first.")
			return nil
		}
		return err
	}

	if matchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	observability.NewPrinter(os.Stdout).PrintMatches(result)
	return nil
}

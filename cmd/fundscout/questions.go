package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundscout/fundscout/internal/corpus"
	"github.com/fundscout/fundscout/internal/observability"
	"github.com/fundscout/fundscout/internal/questions"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Derive intake questions from the program corpus",
	Long:  "Counts how many distinct programs state each requirement category/type pair, selects the pairs frequent enough to be worth asking about, and emits the question list in importance order.",
	RunE:  runQuestions,
}

var (
	questionsConfigPath string
	questionsLimit      int
	questionsJSON       bool
)

func init() {
	questionsCmd.Flags().StringVarP(&questionsConfigPath, "config", "c", "", "Path to config JSON file")
	questionsCmd.Flags().IntVar(&questionsLimit, "limit", questions.DefaultCap, "Maximum questions to select")
	questionsCmd.Flags().BoolVar(&questionsJSON, "json", false, "Emit the question list as JSON")

	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(_ *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(questionsConfigPath)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
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

	freqs := questions.PairFrequencies(programs)
	selected, err := questions.SelectQuestions(freqs, len(programs), questionsLimit, func(pair questions.Pair, frequency int) {
		log.Printf("no question mapping for frequent pair %s/%s (%d programs)", pair.Category, pair.Type, frequency)
	})
	if err != nil {
		if errors.Is(err, questions.ErrInsufficientData) {
			_, _ = fmt.Fprintln(os.Stdout, "Not enough corpus data to derive questions. Run discover and scrape first.")
			return nil
		}
		return err
	}

	if questionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(selected)
	}

	observability.NewPrinter(os.Stdout).PrintQuestions(selected)
	return nil
}

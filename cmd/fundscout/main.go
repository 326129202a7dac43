// Package main provides the fundscout CLI: funding-program discovery,
// extraction, question synthesis and matching.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fundscout",
	Short: "Funding program discovery and matching",
	Long:  "Fundscout discovers funding program pages from institution seed URLs, extracts structured program data, derives intake questions from the corpus, and matches programs against user answers.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fundscout/fundscout/internal/extract"
	"github.com/fundscout/fundscout/internal/match"
	"github.com/fundscout/fundscout/internal/state"
	"github.com/fundscout/fundscout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCrawlStats outputs per-institution crawl state counters.
func (p *Printer) PrintCrawlStats(stats []types.CrawlStats) {
	if len(stats) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-14s %6s %6s %5s %6s %10s\n", "Institution", "Known", "Queued", "Done", "Failed", "Last scan"))
	totals := types.CrawlStats{}
	for _, s := range stats {
		lastScan := "-"
		if s.LastFullScan != nil {
			lastScan = s.LastFullScan.Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("%-14s %6d %6d %5d %6d %10s\n", s.InstitutionID, s.Known, s.Queued, s.Done, s.Failed, lastScan))
		totals.Known += s.Known
		totals.Queued += s.Queued
		totals.Done += s.Done
		totals.Failed += s.Failed
	}
	if len(stats) > 1 {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%-14s %6d %6d %5d %6d\n", "total", totals.Known, totals.Queued, totals.Done, totals.Failed))
	}

	p.printBox("CRAWL STATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMaintenanceResult outputs the before/after counters of a maintenance
// operation together with its backup reference.
func (p *Printer) PrintMaintenanceResult(result *state.MaintenanceResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Backup:   #%d\n", result.BackupID))
	sb.WriteString(fmt.Sprintf("Created:  %s\n", result.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-8s %6s %6s %6s %6s\n", "", "Known", "Queued", "Done", "Failed"))
	sb.WriteString(fmt.Sprintf("%-8s %6d %6d %6d %6d\n", "before", result.Before.Known, result.Before.Queued, result.Before.Done, result.Before.Failed))
	sb.WriteString(fmt.Sprintf("%-8s %6d %6d %6d %6d\n", "after", result.After.Known, result.After.Queued, result.After.Done, result.After.Failed))

	p.printBox(fmt.Sprintf("MAINTENANCE: %s", strings.ToUpper(result.Operation)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExtractionSummary outputs the outcome counters of one scrape run.
func (p *Printer) PrintExtractionSummary(summary *extract.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Processed:   %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("Done:        %d\n", summary.Done))
	sb.WriteString(fmt.Sprintf("Failed:      %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("Cache hits:  %d", summary.CacheHits))

	p.printBox("EXTRACTION RUN", sb.String())
}

// PrintQuestions outputs the selected intake questions in presentation order.
func (p *Printer) PrintQuestions(questions []types.QuestionCandidate) {
	if len(questions) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Selected %d questions:\n\n", len(questions)))
	for i, q := range questions {
		label := q.Label
		if label == "" {
			label = q.ID
		}
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, label))
		sb.WriteString(fmt.Sprintf("    id: %s  freq: %d", q.ID, q.Frequency))
		if i < len(questions)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("INTAKE QUESTIONS", sb.String())
}

// PrintMatches outputs the top matches, or the dominant exclusion reason when
// nothing matched.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMatches(result *match.Result) {
	if result == nil {
		return
	}

	if len(result.Matches) == 0 {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Considered %d programs, none eligible.\n", result.Considered))
		if result.MostExcludingFilter != "" {
			sb.WriteString(fmt.Sprintf("Most excluded by: %s\n\n", result.MostExcludingFilter))
			for _, filter := range []string{match.FilterGeographic, match.FilterAmount, match.FilterCoFinancing, match.FilterRevenueStage} {
				if n := result.ExcludedByFilter[filter]; n > 0 {
					sb.WriteString(fmt.Sprintf("  %-16s %d\n", filter, n))
				}
			}
		}
		p.printBox("NO MATCHES", strings.TrimSuffix(sb.String(), "\n"))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matched %d of %d programs:\n\n", len(result.Matches), result.Considered))

	count := min(len(result.Matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := result.Matches[i]
		name := m.Program.Name
		if len(name) > 44 {
			name = name[:41] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, name))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  Criteria: %d\n", m.Score, m.MatchedCriteria))
		if m.Program.FundingAmountMax > 0 {
			sb.WriteString(fmt.Sprintf("    Up to: %.0f %s\n", m.Program.FundingAmountMax, m.Program.Currency))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(result.Matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more programs", len(result.Matches)-maxItemsToShow))
	}

	p.printBox("MATCHED PROGRAMS", strings.TrimSuffix(sb.String(), "\n"))
}

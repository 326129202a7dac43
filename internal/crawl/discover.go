package crawl

import (
	"context"
	"log"

	"github.com/fundscout/fundscout/internal/config"
	"github.com/fundscout/fundscout/internal/fetch"
)

// StateStore is the slice of the crawl state store discovery needs: an
// additive, idempotent merge of candidate URLs into an institution's state.
type StateStore interface {
	// MergeDiscovered adds candidates to the institution's known set and
	// queues the ones not seen before. Returns the number of newly queued
	// URLs.
	MergeDiscovered(ctx context.Context, institutionID string, urls []string) (int, error)
}

// Result summarizes one discovery run per institution.
type Result struct {
	InstitutionID string
	Candidates    int
	NewlyQueued   int
}

// DiscoverSeed fetches one seed page and returns the candidate program URLs
// that survive same-host, keyword and blacklist filtering, deduplicated and
// capped at the seed's MaxResults.
func DiscoverSeed(ctx context.Context, seed config.Seed, opts *fetch.Options) ([]string, error) {
	result, err := fetch.URL(ctx, seed.SeedURL, opts)
	if err != nil {
		return nil, &DiscoveryError{
			SeedURL: seed.SeedURL,
			Message: "seed fetch failed",
			Cause:   err,
		}
	}

	links, err := ExtractLinks(result.HTML, seed.SeedURL)
	if err != nil {
		return nil, &DiscoveryError{
			SeedURL: seed.SeedURL,
			Message: "link extraction failed",
			Cause:   err,
		}
	}

	keywords := seed.Keywords
	if len(keywords) == 0 {
		keywords = config.DefaultKeywords()
	}
	maxResults := seed.MaxResults
	if maxResults <= 0 {
		maxResults = config.DefaultMaxResults
	}

	candidates := make([]string, 0)
	for _, link := range links {
		if len(candidates) >= maxResults {
			break
		}
		if KeepCandidate(link, keywords) {
			candidates = append(candidates, link)
		}
	}

	return candidates, nil
}

// RunDiscovery walks every seed and merges the survivors into the crawl state
// store. A failing seed is logged and skipped; it never aborts the batch.
// Re-running discovery against unchanged sites is a no-op: the merge only
// queues URLs the institution has not seen before.
func RunDiscovery(ctx context.Context, store StateStore, seeds []config.Seed, opts *fetch.Options) []Result {
	results := make([]Result, 0, len(seeds))

	for _, seed := range seeds {
		candidates, err := DiscoverSeed(ctx, seed, opts)
		if err != nil {
			log.Printf("discovery: skipping seed %s: %v", seed.SeedURL, err)
			continue
		}

		added, err := store.MergeDiscovered(ctx, seed.InstitutionID, candidates)
		if err != nil {
			log.Printf("discovery: merge failed for %s: %v", seed.InstitutionID, err)
			continue
		}

		results = append(results, Result{
			InstitutionID: seed.InstitutionID,
			Candidates:    len(candidates),
			NewlyQueued:   added,
		})
	}

	return results
}

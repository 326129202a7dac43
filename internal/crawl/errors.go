// Package crawl provides the discovery crawler: it walks institution seed
// URLs, filters candidate program links and feeds new jobs into the crawl
// state store.
package crawl

import "fmt"

// DiscoveryError represents a failure while processing one seed. Seed
// failures are logged and skipped; they never abort a discovery batch.
type DiscoveryError struct {
	SeedURL string
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery error for %s: %s: %v", e.SeedURL, e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery error for %s: %s", e.SeedURL, e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError represents a failure in extracting links from HTML.
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}

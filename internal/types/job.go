package types

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a discovered URL.
type JobStatus string

const (
	JobQueued JobStatus = "queued"
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

// CanTransition reports whether a status change is allowed. Status is
// monotonic: queued moves to done or failed exactly once. Failed jobs may be
// re-queued only through an explicit retry.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobQueued:
		return to == JobDone || to == JobFailed
	case JobFailed:
		return to == JobQueued // explicit retry
	default:
		return false
	}
}

// URLJob is one discovered URL awaiting or having completed extraction.
type URLJob struct {
	ID            uuid.UUID `json:"id"`
	URL           string    `json:"url"`
	InstitutionID string    `json:"institution_id"`
	Status        JobStatus `json:"status"`
	FailReason    string    `json:"fail_reason,omitempty"`
	DiscoveredAt  time.Time `json:"discovered_at"`
	Attempts      int       `json:"attempts"`
}

// CrawlStats summarizes the crawl state of one institution or the whole store.
// LastFullScan is nil until the institution's first discovery run completes.
type CrawlStats struct {
	InstitutionID string     `json:"institution_id,omitempty"`
	Known         int        `json:"known"`
	Queued        int        `json:"queued"`
	Done          int        `json:"done"`
	Failed        int        `json:"failed"`
	LastFullScan  *time.Time `json:"last_full_scan,omitempty"`
}

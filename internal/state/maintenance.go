package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fundscout/fundscout/internal/types"
)

// Maintenance operation names, recorded on each backup row.
const (
	OpReset     = "reset"
	OpCleanJobs = "clean-jobs"
	OpCleanSeen = "clean-seen"
)

// Counts are aggregate store totals, taken before and after a maintenance
// operation.
type Counts struct {
	Known  int `json:"known"`
	Queued int `json:"queued"`
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

// MaintenanceResult reports what a maintenance operation changed. BackupID
// identifies the snapshot of the prior state in crawl_backups.
type MaintenanceResult struct {
	Operation string    `json:"operation"`
	BackupID  int64     `json:"backup_id"`
	Before    Counts    `json:"before"`
	After     Counts    `json:"after"`
	CreatedAt time.Time `json:"created_at"`
}

// snapshot is the JSON document stored in crawl_backups: the full seen set
// and job list at the time of the operation.
type snapshot struct {
	Seen []seenEntry    `json:"seen"`
	Jobs []types.URLJob `json:"jobs"`
}

type seenEntry struct {
	InstitutionID string    `json:"institution_id"`
	URL           string    `json:"url"`
	FirstSeen     time.Time `json:"first_seen"`
}

// Reset clears the seen set, all jobs and the discovery run stamps after
// snapshotting the prior state.
func (s *Store) Reset(ctx context.Context) (*MaintenanceResult, error) {
	return s.runMaintenance(ctx, OpReset, []string{
		`DELETE FROM crawl_jobs`,
		`DELETE FROM crawl_seen`,
		`DELETE FROM crawl_runs`,
	})
}

// CleanJobs drops done and failed jobs, retaining queued ones and the seen
// set, after snapshotting the prior state.
func (s *Store) CleanJobs(ctx context.Context) (*MaintenanceResult, error) {
	return s.runMaintenance(ctx, OpCleanJobs, []string{
		`DELETE FROM crawl_jobs WHERE status <> 'queued'`,
	})
}

// CleanSeen clears the dedup memory while retaining jobs, after snapshotting
// the prior state. Subsequent discovery runs will re-evaluate every candidate
// URL; existing jobs are not duplicated.
func (s *Store) CleanSeen(ctx context.Context) (*MaintenanceResult, error) {
	return s.runMaintenance(ctx, OpCleanSeen, []string{
		`DELETE FROM crawl_seen`,
	})
}

func (s *Store) runMaintenance(ctx context.Context, operation string, stmts []string) (*MaintenanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin maintenance transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	before, err := s.countsTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshotTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup snapshot: %w", err)
	}

	var backupID int64
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO crawl_backups (operation, snapshot)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		operation, snapJSON,
	).Scan(&backupID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to write backup for %s: %w", operation, err)
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", operation, err)
		}
	}

	after, err := s.countsTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", operation, err)
	}

	return &MaintenanceResult{
		Operation: operation,
		BackupID:  backupID,
		Before:    before,
		After:     after,
		CreatedAt: createdAt,
	}, nil
}

func (s *Store) countsTx(ctx context.Context, tx pgx.Tx) (Counts, error) {
	var c Counts
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM crawl_seen`).Scan(&c.Known)
	if err != nil {
		return c, fmt.Errorf("failed to count seen urls: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT status, COUNT(*) FROM crawl_jobs GROUP BY status`)
	if err != nil {
		return c, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, fmt.Errorf("failed to scan job count: %w", err)
		}
		switch types.JobStatus(status) {
		case types.JobQueued:
			c.Queued = n
		case types.JobDone:
			c.Done = n
		case types.JobFailed:
			c.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return c, fmt.Errorf("failed to read job counts: %w", err)
	}
	return c, nil
}

func (s *Store) snapshotTx(ctx context.Context, tx pgx.Tx) (*snapshot, error) {
	snap := &snapshot{Seen: []seenEntry{}, Jobs: []types.URLJob{}}

	seenRows, err := tx.Query(ctx,
		`SELECT institution_id, url, first_seen FROM crawl_seen ORDER BY institution_id, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot seen set: %w", err)
	}
	defer seenRows.Close()
	for seenRows.Next() {
		var e seenEntry
		if err := seenRows.Scan(&e.InstitutionID, &e.URL, &e.FirstSeen); err != nil {
			return nil, fmt.Errorf("failed to scan seen entry: %w", err)
		}
		snap.Seen = append(snap.Seen, e)
	}
	if err := seenRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen entries: %w", err)
	}

	jobRows, err := tx.Query(ctx,
		`SELECT id, institution_id, url, status, fail_reason, attempts, discovered_at
		 FROM crawl_jobs ORDER BY discovered_at, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot jobs: %w", err)
	}
	defer jobRows.Close()
	jobs, err := scanJobs(jobRows)
	if err != nil {
		return nil, err
	}
	if jobs != nil {
		snap.Jobs = jobs
	}
	return snap, nil
}

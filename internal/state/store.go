// Package state persists crawl progress in PostgreSQL: the per-institution
// seen set, the URL job queue, and timestamped backups taken by maintenance
// operations. Writes are serialized through a store-level mutex; reads go
// straight to the pool.
package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fundscout/fundscout/internal/types"
)

// Store wraps a PostgreSQL connection pool holding crawl state.
type Store struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
}

// Connect establishes a connection pool to the database and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the crawl state tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS crawl_seen (
			institution_id TEXT NOT NULL,
			url            TEXT NOT NULL,
			first_seen     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (institution_id, url)
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_jobs (
			id             UUID PRIMARY KEY,
			institution_id TEXT NOT NULL,
			url            TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'queued',
			fail_reason    TEXT NOT NULL DEFAULT '',
			attempts       INT NOT NULL DEFAULT 0,
			discovered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (institution_id, url)
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_runs (
			institution_id TEXT PRIMARY KEY,
			last_full_scan TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_backups (
			id         BIGSERIAL PRIMARY KEY,
			operation  TEXT NOT NULL,
			snapshot   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create crawl state schema: %w", err)
		}
	}
	return nil
}

// MergeDiscovered records candidate URLs for an institution and queues a job
// for each URL not already in the seen set. Returns the number of newly
// queued jobs. Re-running discovery with the same candidates queues nothing
// new; the institution's last-scan timestamp still advances.
func (s *Store) MergeDiscovered(ctx context.Context, institutionID string, urls []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	newlyQueued := 0
	for _, u := range urls {
		tag, err := tx.Exec(ctx,
			`INSERT INTO crawl_seen (institution_id, url)
			 VALUES ($1, $2)
			 ON CONFLICT (institution_id, url) DO NOTHING`,
			institutionID, u,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to record seen url %s: %w", u, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}

		jobTag, err := tx.Exec(ctx,
			`INSERT INTO crawl_jobs (id, institution_id, url, status)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (institution_id, url) DO NOTHING`,
			uuid.New(), institutionID, u, string(types.JobQueued),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue url %s: %w", u, err)
		}
		newlyQueued += int(jobTag.RowsAffected())
	}

	// Stamp the institution's discovery run, even when nothing was new
	if _, err := tx.Exec(ctx,
		`INSERT INTO crawl_runs (institution_id, last_full_scan)
		 VALUES ($1, NOW())
		 ON CONFLICT (institution_id) DO UPDATE SET last_full_scan = NOW()`,
		institutionID,
	); err != nil {
		return 0, fmt.Errorf("failed to record discovery run for %s: %w", institutionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit discovery merge: %w", err)
	}
	return newlyQueued, nil
}

// EnqueueIfNew records a single URL, queuing a job if it was not seen before.
// Returns true when a new job was queued.
func (s *Store) EnqueueIfNew(ctx context.Context, institutionID, url string) (bool, error) {
	n, err := s.MergeDiscovered(ctx, institutionID, []string{url})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextQueued returns up to limit queued jobs, oldest first. An empty
// institutionID selects across all institutions.
func (s *Store) NextQueued(ctx context.Context, institutionID string, limit int) ([]types.URLJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, institution_id, url, status, fail_reason, attempts, discovered_at
		 FROM crawl_jobs
		 WHERE status = $1 AND ($2 = '' OR institution_id = $2)
		 ORDER BY discovered_at, url
		 LIMIT $3`,
		string(types.JobQueued), institutionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query queued jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// MarkDone transitions a queued job to done.
func (s *Store) MarkDone(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.pool.Exec(ctx,
		`UPDATE crawl_jobs SET status = $1 WHERE id = $2 AND status = $3`,
		string(types.JobDone), id, string(types.JobQueued),
	)
	if err != nil {
		return fmt.Errorf("failed to mark job %s done: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id, types.JobDone)
	}
	return nil
}

// MarkFailed transitions a queued job to failed, recording the reason and
// incrementing the attempt counter.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.pool.Exec(ctx,
		`UPDATE crawl_jobs
		 SET status = $1, fail_reason = $2, attempts = attempts + 1
		 WHERE id = $3 AND status = $4`,
		string(types.JobFailed), reason, id, string(types.JobQueued),
	)
	if err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id, types.JobFailed)
	}
	return nil
}

// RequeueFailed moves failed jobs back to queued. This is the only path out
// of the failed status. An empty institutionID requeues across all
// institutions. Returns the number of jobs requeued.
func (s *Store) RequeueFailed(ctx context.Context, institutionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.pool.Exec(ctx,
		`UPDATE crawl_jobs
		 SET status = $1, fail_reason = ''
		 WHERE status = $2 AND ($3 = '' OR institution_id = $3)`,
		string(types.JobQueued), string(types.JobFailed), institutionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue failed jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats returns per-institution crawl counts, sorted by institution ID.
func (s *Store) Stats(ctx context.Context) ([]types.CrawlStats, error) {
	byInstitution := map[string]*types.CrawlStats{}
	get := func(id string) *types.CrawlStats {
		st, ok := byInstitution[id]
		if !ok {
			st = &types.CrawlStats{InstitutionID: id}
			byInstitution[id] = st
		}
		return st
	}

	seenRows, err := s.pool.Query(ctx,
		`SELECT institution_id, COUNT(*) FROM crawl_seen GROUP BY institution_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen counts: %w", err)
	}
	defer seenRows.Close()
	for seenRows.Next() {
		var id string
		var n int
		if err := seenRows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan seen count: %w", err)
		}
		get(id).Known = n
	}
	if err := seenRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen counts: %w", err)
	}

	jobRows, err := s.pool.Query(ctx,
		`SELECT institution_id, status, COUNT(*) FROM crawl_jobs GROUP BY institution_id, status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query job counts: %w", err)
	}
	defer jobRows.Close()
	for jobRows.Next() {
		var id, status string
		var n int
		if err := jobRows.Scan(&id, &status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		st := get(id)
		switch types.JobStatus(status) {
		case types.JobQueued:
			st.Queued = n
		case types.JobDone:
			st.Done = n
		case types.JobFailed:
			st.Failed = n
		}
	}
	if err := jobRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job counts: %w", err)
	}

	runRows, err := s.pool.Query(ctx,
		`SELECT institution_id, last_full_scan FROM crawl_runs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery runs: %w", err)
	}
	defer runRows.Close()
	for runRows.Next() {
		var id string
		var t time.Time
		if err := runRows.Scan(&id, &t); err != nil {
			return nil, fmt.Errorf("failed to scan discovery run: %w", err)
		}
		get(id).LastFullScan = &t
	}
	if err := runRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read discovery runs: %w", err)
	}

	ids := make([]string, 0, len(byInstitution))
	for id := range byInstitution {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stats := make([]types.CrawlStats, 0, len(ids))
	for _, id := range ids {
		stats = append(stats, *byInstitution[id])
	}
	return stats, nil
}

// transitionError inspects the job's current status to build a precise error
// after an UPDATE matched no rows.
func (s *Store) transitionError(ctx context.Context, id uuid.UUID, to types.JobStatus) error {
	var current string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM crawl_jobs WHERE id = $1`, id,
	).Scan(&current)
	if err == pgx.ErrNoRows {
		return &NotFoundError{JobID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to inspect job %s: %w", id, err)
	}
	return &TransitionError{JobID: id, From: types.JobStatus(current), To: to}
}

func scanJobs(rows pgx.Rows) ([]types.URLJob, error) {
	var jobs []types.URLJob
	for rows.Next() {
		var j types.URLJob
		var status string
		if err := rows.Scan(&j.ID, &j.InstitutionID, &j.URL, &status, &j.FailReason, &j.Attempts, &j.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		j.Status = types.JobStatus(status)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job rows: %w", err)
	}
	return jobs, nil
}

// Package corpus persists extracted funding programs in PostgreSQL. Programs
// are keyed by URL; a re-scrape overwrites the record in place.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fundscout/fundscout/internal/types"
)

// Store wraps a PostgreSQL connection pool holding the program corpus.
type Store struct {
	pool    *pgxpool.Pool
	ownPool bool
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
	return &Store{pool: pool, ownPool: true}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool if this store opened it.
func (s *Store) Close() {
	if s.ownPool && s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the programs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS programs (
			url                TEXT PRIMARY KEY,
			institution_id     TEXT NOT NULL,
			name               TEXT NOT NULL,
			description        TEXT NOT NULL DEFAULT '',
			funding_amount_min DOUBLE PRECISION NOT NULL DEFAULT 0,
			funding_amount_max DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency           TEXT NOT NULL DEFAULT '',
			deadline           TIMESTAMPTZ,
			open_deadline      BOOLEAN NOT NULL DEFAULT FALSE,
			contact_email      TEXT NOT NULL DEFAULT '',
			contact_phone      TEXT NOT NULL DEFAULT '',
			funding_types      JSONB NOT NULL DEFAULT '[]',
			requirements       JSONB NOT NULL DEFAULT '{}',
			confidence_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
			scraped_at         TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create programs table: %w", err)
	}
	return nil
}

// UpsertProgram inserts or overwrites the program record for its URL.
func (s *Store) UpsertProgram(ctx context.Context, p *types.ProgramRecord) error {
	fundingTypes, err := json.Marshal(p.FundingTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal funding types: %w", err)
	}
	requirements, err := json.Marshal(p.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO programs (
			url, institution_id, name, description,
			funding_amount_min, funding_amount_max, currency,
			deadline, open_deadline, contact_email, contact_phone,
			funding_types, requirements, confidence_score, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (url) DO UPDATE SET
			institution_id = $2, name = $3, description = $4,
			funding_amount_min = $5, funding_amount_max = $6, currency = $7,
			deadline = $8, open_deadline = $9, contact_email = $10,
			contact_phone = $11, funding_types = $12, requirements = $13,
			confidence_score = $14, scraped_at = $15`,
		p.URL, p.InstitutionID, p.Name, p.Description,
		p.FundingAmountMin, p.FundingAmountMax, p.Currency,
		p.Deadline, p.OpenDeadline, p.ContactEmail, p.ContactPhone,
		fundingTypes, requirements, p.ConfidenceScore, p.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert program %s: %w", p.URL, err)
	}
	return nil
}

// ListPrograms returns the whole corpus, newest scrape first. An empty
// institutionID selects across all institutions.
func (s *Store) ListPrograms(ctx context.Context, institutionID string) ([]types.ProgramRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT url, institution_id, name, description,
		        funding_amount_min, funding_amount_max, currency,
		        deadline, open_deadline, contact_email, contact_phone,
		        funding_types, requirements, confidence_score, scraped_at
		 FROM programs
		 WHERE $1 = '' OR institution_id = $1
		 ORDER BY scraped_at DESC, url`,
		institutionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []types.ProgramRecord
	for rows.Next() {
		var p types.ProgramRecord
		var fundingTypes, requirements []byte
		err := rows.Scan(
			&p.URL, &p.InstitutionID, &p.Name, &p.Description,
			&p.FundingAmountMin, &p.FundingAmountMax, &p.Currency,
			&p.Deadline, &p.OpenDeadline, &p.ContactEmail, &p.ContactPhone,
			&fundingTypes, &requirements, &p.ConfidenceScore, &p.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program row: %w", err)
		}
		if err := json.Unmarshal(fundingTypes, &p.FundingTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal funding types for %s: %w", p.URL, err)
		}
		if err := json.Unmarshal(requirements, &p.Requirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements for %s: %w", p.URL, err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program rows: %w", err)
	}
	return programs, nil
}

// CountPrograms returns the corpus size.
func (s *Store) CountPrograms(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM programs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return n, nil
}

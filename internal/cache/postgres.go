package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists cache entries in an extraction_cache table.
type PostgresStore struct {
	pool    *pgxpool.Pool
	ownPool bool
}

// ConnectPostgres opens a pool for cache persistence and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, ownPool: true}, nil
}

// NewPostgresStore wraps an existing pool. The caller keeps ownership.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS extraction_cache (
			key               TEXT PRIMARY KEY,
			url_hash          TEXT NOT NULL,
			extractor_version TEXT NOT NULL,
			url               TEXT NOT NULL,
			result            JSONB NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create extraction_cache table: %w", err)
	}
	return nil
}

// LoadIndex reads all persisted entries. Rows that fail to scan are dropped
// with a warning rather than failing the load.
func (p *PostgresStore) LoadIndex(ctx context.Context) (map[string]Entry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, url_hash, extractor_version, url, result, created_at FROM extraction_cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache index: %w", err)
	}
	defer rows.Close()

	entries := map[string]Entry{}
	dropped := 0
	for rows.Next() {
		var e Entry
		var result []byte
		if err := rows.Scan(&e.Key, &e.URLHash, &e.Version, &e.URL, &result, &e.Timestamp); err != nil {
			dropped++
			continue
		}
		e.Result = json.RawMessage(result)
		entries[e.Key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}
	if dropped > 0 {
		log.Printf("warning: dropped %d unreadable cache entries during index load", dropped)
	}
	return entries, nil
}

// Save upserts one cache entry.
func (p *PostgresStore) Save(ctx context.Context, entry Entry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO extraction_cache (key, url_hash, extractor_version, url, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (key) DO UPDATE
		 SET result = $5, created_at = $6`,
		entry.Key, entry.URLHash, entry.Version, entry.URL, []byte(entry.Result), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// Delete removes one cache entry. Deleting an absent key is not an error.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM extraction_cache WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Close releases the pool if this store opened it.
func (p *PostgresStore) Close() {
	if p.ownPool && p.pool != nil {
		p.pool.Close()
	}
}

// Package cache is the extraction cache: structured-extraction results keyed
// by URL hash and extractor version, with a TTL and an in-memory index backed
// by durable storage. The index is reloaded lazily at a bounded interval;
// writes update the index synchronously and persist in the background.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a cached extraction stays valid.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultReloadInterval bounds how often the in-memory index is
	// refreshed from durable storage.
	DefaultReloadInterval = 5 * time.Minute
)

// Entry is one cached extraction result.
type Entry struct {
	Key       string          `json:"key"`
	URLHash   string          `json:"url_hash"`
	Version   string          `json:"extractor_version"`
	URL       string          `json:"url"`
	Result    json.RawMessage `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// Persistence is the durable side of the cache.
type Persistence interface {
	// LoadIndex returns all persisted entries. Implementations drop
	// unreadable entries with a logged warning rather than failing.
	LoadIndex(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close()
}

// HashURL returns the hex-encoded SHA-256 of a URL.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// EntryKey builds the cache key. The extractor version is part of the key so
// bumping the extractor invalidates old results without an explicit flush.
func EntryKey(urlHash, version string) string {
	return urlHash + ":" + version
}

// Service is the extraction cache with an explicit lifecycle.
type Service struct {
	persist        Persistence
	ttl            time.Duration
	reloadInterval time.Duration
	now            func() time.Time

	mu         sync.RWMutex
	index      map[string]Entry
	lastReload time.Time

	writes sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithReloadInterval overrides the minimum time between index reloads.
func WithReloadInterval(d time.Duration) Option {
	return func(s *Service) { s.reloadInterval = d }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a cache over the given persistence. Call Open before use.
func NewService(persist Persistence, opts ...Option) *Service {
	s := &Service{
		persist:        persist,
		ttl:            DefaultTTL,
		reloadInterval: DefaultReloadInterval,
		now:            time.Now,
		index:          map[string]Entry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the initial index. A corrupt or unreadable store is logged and
// treated as empty; the cache rebuilds as new extractions come in.
func (s *Service) Open(ctx context.Context) error {
	entries, err := s.persist.LoadIndex(ctx)
	if err != nil {
		log.Printf("warning: extraction cache unreadable, starting empty: %v", err)
		entries = map[string]Entry{}
	}

	s.mu.Lock()
	s.index = entries
	s.lastReload = s.now()
	s.mu.Unlock()
	return nil
}

// Get returns the cached result for (urlHash, version), or ok=false on a
// miss. Entries older than the TTL are treated as absent and purged.
func (s *Service) Get(ctx context.Context, urlHash, version string) (json.RawMessage, bool) {
	s.maybeReload(ctx)
	key := EntryKey(urlHash, version)

	s.mu.RLock()
	entry, ok := s.index[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.now().Sub(entry.Timestamp) > s.ttl {
		s.mu.Lock()
		delete(s.index, key)
		s.mu.Unlock()
		if err := s.persist.Delete(ctx, key); err != nil {
			log.Printf("warning: failed to purge expired cache entry %s: %v", key, err)
		}
		return nil, false
	}
	return entry.Result, true
}

// Put stores an extraction result. The in-memory index is updated before Put
// returns; the durable write happens in the background and never blocks the
// caller. Use Flush to wait for pending writes.
func (s *Service) Put(ctx context.Context, urlHash, version, url string, result json.RawMessage) {
	entry := Entry{
		Key:       EntryKey(urlHash, version),
		URLHash:   urlHash,
		Version:   version,
		URL:       url,
		Result:    result,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	s.index[entry.Key] = entry
	s.mu.Unlock()

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.persist.Save(context.WithoutCancel(ctx), entry); err != nil {
			log.Printf("warning: failed to persist cache entry %s: %v", entry.Key, err)
		}
	}()
}

// Flush blocks until all background writes have completed.
func (s *Service) Flush() {
	s.writes.Wait()
}

// Close flushes pending writes and releases the persistence layer.
func (s *Service) Close() {
	s.Flush()
	s.persist.Close()
}

// maybeReload refreshes the index from durable storage when the reload
// interval has elapsed. Entries written since the last persisted state win on
// conflict so in-flight background writes are not lost from the index.
func (s *Service) maybeReload(ctx context.Context) {
	s.mu.RLock()
	due := s.now().Sub(s.lastReload) >= s.reloadInterval
	s.mu.RUnlock()
	if !due {
		return
	}

	loaded, err := s.persist.LoadIndex(ctx)
	if err != nil {
		log.Printf("warning: extraction cache reload failed, keeping in-memory index: %v", err)
		loaded = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.lastReload) < s.reloadInterval {
		return // another goroutine reloaded while we were reading
	}
	for key, entry := range loaded {
		current, ok := s.index[key]
		if !ok || entry.Timestamp.After(current.Timestamp) {
			s.index[key] = entry
		}
	}
	s.lastReload = s.now()
}

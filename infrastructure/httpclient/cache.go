package httpclient

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached response body plus the time it was stored.
type Entry struct {
	Data      []byte
	Timestamp time.Time
}

// Store abstracts the response cache backend. Keys are request URLs.
// Concurrent writers to the same key may race; last write wins.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Delete(key string)
}

// MemoryStore is the session-scoped cache tier. Entries are never evicted;
// they live until overwritten or until the process ends.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory response cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for key, if present.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Set stores or overwrites the entry for key.
func (s *MemoryStore) Set(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// CacheConfig controls the stale-on-error cache decorator.
type CacheConfig struct {
	// Freshness is how long a cached body may serve as a fallback,
	// measured from the time it was stored.
	Freshness time.Duration
}

// DefaultCacheConfig matches the product policy: five minutes.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Freshness: 5 * time.Minute}
}

// CacheDoer adds stale-on-error caching for reads.
//
// On a successful GET the body is written through to the store, keyed by
// URL. On a failed GET the store is consulted first: a fresh entry
// resolves the call with cached data instead of propagating the error.
// This check runs before the retry decorator below it ever sees the
// failure, which is why CacheDoer must wrap RetryDoer in the chain.
type CacheDoer struct {
	inner  Doer
	store  Store
	config CacheConfig
	now    func() time.Time

	// onHit is an observability hook, set by the metrics decorator.
	onHit func()
}

// NewCacheDoer creates the caching decorator.
func NewCacheDoer(inner Doer, store Store, config CacheConfig) *CacheDoer {
	if config.Freshness <= 0 {
		config.Freshness = DefaultCacheConfig().Freshness
	}
	return &CacheDoer{
		inner:  inner,
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Do applies the write-through and stale-on-error policies.
func (d *CacheDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := d.inner.Do(ctx, req)

	if !req.IsRead() || d.store == nil {
		return resp, err
	}

	if err == nil {
		d.store.Set(req.URL, Entry{Data: resp.Body, Timestamp: d.now()})
		return resp, nil
	}

	if resp, ok := d.fallback(req); ok {
		return resp, nil
	}
	return nil, err
}

// fallback serves a fresh cached body for the request's URL, if one
// exists. The retry decorator calls this on each read failure so the
// cache check always precedes retry logic.
func (d *CacheDoer) fallback(req *Request) (*Response, bool) {
	if d.store == nil {
		return nil, false
	}
	entry, ok := d.store.Get(req.URL)
	if !ok || d.now().Sub(entry.Timestamp) >= d.config.Freshness {
		return nil, false
	}
	if d.onHit != nil {
		d.onHit()
	}
	return &Response{
		Status:    200,
		Body:      entry.Data,
		FromCache: true,
	}, true
}

var _ Doer = (*CacheDoer)(nil)

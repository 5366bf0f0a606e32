package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/htmlflow/internal/ratelimit"
)

type memoryEntry struct {
	record    ratelimit.Record
	expiresAt time.Time
}

// CounterMemoryStore is an in-memory implementation of ratelimit.Store.
// Expired entries are dropped lazily on access.
type CounterMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewCounterMemoryStore creates a new in-memory counter store.
func NewCounterMemoryStore() *CounterMemoryStore {
	return &CounterMemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used to evaluate expiry.
func (s *CounterMemoryStore) WithClock(now func() time.Time) *CounterMemoryStore {
	s.now = now

	return s
}

func (s *CounterMemoryStore) Get(_ context.Context, key string) (*ratelimit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ratelimit.ErrRecordNotFound
	}

	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)

		return nil, ratelimit.ErrRecordNotFound
	}

	record := entry.record

	return &record, nil
}

func (s *CounterMemoryStore) Set(_ context.Context, key string, record *ratelimit.Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{record: *record}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.entries[key] = entry

	return nil
}

// Keys returns the stored keys in sorted order, including expired ones not yet dropped.
func (s *CounterMemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Compile-time check.
var _ ratelimit.Store = (*CounterMemoryStore)(nil)

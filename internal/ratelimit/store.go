package ratelimit

import (
	"context"
	"time"
)

// RecordTTL is how long the store keeps a record after its last write.
const RecordTTL = 24 * time.Hour

// Record is the persisted per-caller, per-day counter.
type Record struct {
	RequestsMade int `json:"requests_made"`
}

// Store defines the interface for rate limit counter storage.
type Store interface {
	// Get returns the record stored under key, or ErrRecordNotFound when absent.
	Get(ctx context.Context, key string) (*Record, error)
	// Set writes the record under key and (re)sets its expiry to ttl from now.
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
}

// StoreProvider hands out the shared counter store, failing with
// ErrNotInitialized until the underlying session exists.
type StoreProvider interface {
	Store() (Store, error)
}

// StoreProviderFunc adapts a function to StoreProvider.
type StoreProviderFunc func() (Store, error)

func (f StoreProviderFunc) Store() (Store, error) {
	return f()
}

// Package session owns the single Redis connection shared by every request.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/htmlflow/internal/ratelimit"
	"github.com/serroba/htmlflow/internal/store"
	"go.uber.org/zap"
)

// Dialer opens a connection to the counter store.
type Dialer func(ctx context.Context) (*redis.Client, error)

// RedisDialer returns a Dialer that creates a client for opts and verifies it with PING.
func RedisDialer(opts *redis.Options) Dialer {
	return func(ctx context.Context) (*redis.Client, error) {
		client := redis.NewClient(opts)

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}

		return client, nil
	}
}

// Manager holds the process-wide store session. It moves from uninitialized
// to ready once Initialize succeeds and stays ready until Shutdown.
type Manager struct {
	mu     sync.RWMutex
	dial   Dialer
	client *redis.Client
	store  *store.CounterRedisStore
	logger *zap.Logger
}

// NewManager creates an uninitialized session manager.
func NewManager(dial Dialer, logger *zap.Logger) *Manager {
	return &Manager{
		dial:   dial,
		logger: logger,
	}
}

// Initialize establishes the session. Calling it again once a session exists
// is a no-op and keeps the existing session.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return nil
	}

	client, err := m.dial(ctx)
	if err != nil {
		return err
	}

	m.client = client
	m.store = store.NewCounterRedisStore(client)

	m.logger.Info("store session initialized")

	return nil
}

// Initialized reports whether a session exists.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.client != nil
}

// Client returns the shared Redis client.
func (m *Manager) Client() (*redis.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.client == nil {
		return nil, ratelimit.ErrNotInitialized
	}

	return m.client, nil
}

// Store returns the counter store bound to the shared client.
func (m *Manager) Store() (ratelimit.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.store == nil {
		return nil, ratelimit.ErrNotInitialized
	}

	return m.store, nil
}

// Ping checks connectivity of the shared session.
func (m *Manager) Ping(ctx context.Context) error {
	client, err := m.Client()
	if err != nil {
		return err
	}

	return client.Ping(ctx).Err()
}

// Shutdown closes the shared session, if any.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	err := m.client.Close()
	m.client = nil
	m.store = nil

	m.logger.Info("store session closed")

	return err
}

// Compile-time check.
var _ ratelimit.StoreProvider = (*Manager)(nil)

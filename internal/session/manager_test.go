package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/htmlflow/internal/ratelimit"
	"github.com/serroba/htmlflow/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingDialer returns clients that are never used over the network.
func countingDialer(calls *int) session.Dialer {
	return func(_ context.Context) (*redis.Client, error) {
		*calls++

		return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), nil
	}
}

func TestManager_BeforeInitialize(t *testing.T) {
	calls := 0
	m := session.NewManager(countingDialer(&calls), zap.NewNop())

	t.Run("store returns ErrNotInitialized", func(t *testing.T) {
		s, err := m.Store()

		assert.Nil(t, s)
		assert.ErrorIs(t, err, ratelimit.ErrNotInitialized)
	})

	t.Run("client returns ErrNotInitialized", func(t *testing.T) {
		c, err := m.Client()

		assert.Nil(t, c)
		assert.ErrorIs(t, err, ratelimit.ErrNotInitialized)
	})

	t.Run("ping returns ErrNotInitialized", func(t *testing.T) {
		assert.ErrorIs(t, m.Ping(context.Background()), ratelimit.ErrNotInitialized)
	})

	t.Run("shutdown is a no-op", func(t *testing.T) {
		assert.NoError(t, m.Shutdown())
	})

	assert.False(t, m.Initialized())
	assert.Zero(t, calls, "nothing should dial before Initialize")
}

func TestManager_Initialize(t *testing.T) {
	t.Run("establishes session", func(t *testing.T) {
		calls := 0
		m := session.NewManager(countingDialer(&calls), zap.NewNop())

		require.NoError(t, m.Initialize(context.Background()))

		s, err := m.Store()
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.True(t, m.Initialized())
		assert.Equal(t, 1, calls)

		_ = m.Shutdown()
	})

	t.Run("second call keeps existing session", func(t *testing.T) {
		calls := 0
		m := session.NewManager(countingDialer(&calls), zap.NewNop())

		require.NoError(t, m.Initialize(context.Background()))
		first, _ := m.Client()

		require.NoError(t, m.Initialize(context.Background()))
		second, _ := m.Client()

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)

		_ = m.Shutdown()
	})

	t.Run("dial failure is returned and leaves manager uninitialized", func(t *testing.T) {
		dialErr := errors.New("connection refused")
		m := session.NewManager(func(_ context.Context) (*redis.Client, error) {
			return nil, dialErr
		}, zap.NewNop())

		err := m.Initialize(context.Background())

		assert.ErrorIs(t, err, dialErr)
		assert.False(t, m.Initialized())

		_, err = m.Store()
		assert.ErrorIs(t, err, ratelimit.ErrNotInitialized)
	})

	t.Run("shutdown returns manager to uninitialized", func(t *testing.T) {
		calls := 0
		m := session.NewManager(countingDialer(&calls), zap.NewNop())
		require.NoError(t, m.Initialize(context.Background()))

		_ = m.Shutdown()

		assert.False(t, m.Initialized())
	})
}

func TestRedisDialer(t *testing.T) {
	t.Run("fails when redis is unreachable", func(t *testing.T) {
		dial := session.RedisDialer(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})

		client, err := dial(context.Background())

		assert.Nil(t, client)
		assert.ErrorContains(t, err, "127.0.0.1:1")
	})
}

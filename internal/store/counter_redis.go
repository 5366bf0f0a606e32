package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/htmlflow/internal/ratelimit"
)

// CounterRedisStore is a Redis implementation of ratelimit.Store.
// Records are JSON strings written with SET ... EX.
type CounterRedisStore struct {
	client redis.UniversalClient
}

// NewCounterRedisStore creates a new Redis-backed counter store.
func NewCounterRedisStore(client redis.UniversalClient) *CounterRedisStore {
	return &CounterRedisStore{client: client}
}

func (r *CounterRedisStore) Get(ctx context.Context, key string) (*ratelimit.Record, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ratelimit.ErrRecordNotFound
		}

		return nil, fmt.Errorf("%w: get %s: %w", ratelimit.ErrStoreUnavailable, key, err)
	}

	var record ratelimit.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}

	return &record, nil
}

func (r *CounterRedisStore) Set(ctx context.Context, key string, record *ratelimit.Record, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ratelimit.ErrStoreUnavailable, key, err)
	}

	return nil
}

// Compile-time check.
var _ ratelimit.Store = (*CounterRedisStore)(nil)

package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultCounterKey is the fixed key under which the ticket sequence
// counter is persisted.
const DefaultCounterKey = "servicedesk:ticket:sequence"

// RedisCounterStore persists the sequence allocator's counter in Redis.
type RedisCounterStore struct {
	client *redis.Client
	key    string
}

// NewRedisCounterStore builds the store. key defaults to DefaultCounterKey.
func NewRedisCounterStore(client *redis.Client, key string) *RedisCounterStore {
	if key == "" {
		key = DefaultCounterKey
	}
	return &RedisCounterStore{client: client, key: key}
}

// Get returns the persisted counter. ok is false when no counter exists.
func (s *RedisCounterStore) Get(ctx context.Context) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt counter is treated as absent; the allocator
		// re-derives it from the reconciliation scan.
		return 0, false, nil
	}
	return parsed, true, nil
}

// Set persists the counter value.
func (s *RedisCounterStore) Set(ctx context.Context, value int64) error {
	return s.client.Set(ctx, s.key, strconv.FormatInt(value, 10), 0).Err()
}

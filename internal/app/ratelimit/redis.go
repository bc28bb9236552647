package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore with INCR + EXPIRE against a
// shared redis. Loss of this state only weakens rate limiting, never billing
// correctness, so no durability is expected of it.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCounterStore connects to redisURL. An empty URL returns a nil
// store, which the limiter treats as permanently fail-open.
func NewRedisCounterStore(redisURL, keyPrefix string) (*RedisCounterStore, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCounterStore{client: client, prefix: keyPrefix}, nil
}

func (s *RedisCounterStore) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := fmt.Sprintf("%s:rl:%s", s.prefix, key)

	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}

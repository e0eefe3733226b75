package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultStatsTTL = 2 * time.Minute

// StatsCache stores JSON-encoded stats snapshots in Redis.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stats cache: read %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		c.rdb.Del(ctx, key)
		return false, fmt.Errorf("stats cache: corrupted entry %s: %w", key, err)
	}
	return true, nil
}

func (c *StatsCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("stats cache: delete %v: %w", keys, err)
	}
	return nil
}

func (c *StatsCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("stats cache: encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

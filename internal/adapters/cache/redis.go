package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
)

// NewRedisClient opens a pooled client and waits until the server answers a PING.
// The client backs the stats cache, the team cache and the rate limiter.
func NewRedisClient(host, port, password string, dbIndex int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           dbIndex,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Printf("[CACHE] connected to redis at %s (db %d)", addr, dbIndex)
			return rdb, nil
		}

		if attempt < connectAttempts {
			log.Printf("[CACHE] redis at %s not ready (attempt %d/%d): %v", addr, attempt, connectAttempts, err)
			time.Sleep(time.Duration(attempt) * connectBackoff)
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
}

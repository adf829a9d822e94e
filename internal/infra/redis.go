package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to the job queue broker and pings it before returning.
// Every worker holds a pooled connection while blocked in BRPOP, so the pool
// is sized to leave room for enqueues from HTTP handlers.
func NewRedis(ctx context.Context, redisURL string, workers int) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if floor := workers + 10; opts.PoolSize < floor {
		opts.PoolSize = floor
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

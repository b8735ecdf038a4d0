package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient opens a pooled client and verifies connectivity.
// The pool backs the event fanout, the per-auction subscriptions and
// the watcher's dedup locks.
func NewRedisClient(host string, port int) (*redis.Client, error) {
	poolSize := runtime.NumCPU() * 8
	if poolSize > 512 {
		poolSize = 512
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		zap.L().Error("redis_connect",
			zap.String("addr", rc.Options().Addr), zap.Error(err))
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rc, nil
}

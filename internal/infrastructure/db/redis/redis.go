// Package redis keeps the marketplace snapshot and order idempotency keys in
// Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName      = "order-marketplace"
	defaultTimeout  = 5 * time.Second
	defaultPoolSize = 10
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
	PoolSize int
}

// Connect creates a client and fails unless the server answers a ping within
// the timeout. The same timeout bounds every later read and write.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		PoolSize:     pool,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

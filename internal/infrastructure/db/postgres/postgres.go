package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for a PostgreSQL connection pool.
type Config struct {
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

// Connect opens a pool through lib/pq and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

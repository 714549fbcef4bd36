// Package mongo persists the marketplace snapshot and the order event log in
// MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	appName            = "order-marketplace"
	defaultTimeout     = 10 * time.Second
	defaultMaxPoolSize = 20
)

// Config holds the MongoDB connection settings.
type Config struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// Connect opens a client, checks the server answers and returns the client
// with the marketplace database. Writes are acknowledged by a majority.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, fmt.Errorf("mongo: database name is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := cfg.MaxPoolSize
	if pool == 0 {
		pool = defaultMaxPoolSize
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetMaxPoolSize(pool).
		SetServerSelectionTimeout(timeout).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(cfg.Database)
	if err := Ping(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, db, nil
}

// Ping runs the ping command against db for the readiness check.
func Ping(ctx context.Context, db *mongo.Database) error {
	return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

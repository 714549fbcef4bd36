package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-scoped idempotency keys to order ids.
// Key format: idem:order:<client_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore wraps the given Redis client. ttl <= 0 uses idempotencyTTL.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the order created under key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	orderID, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return orderID, true, nil
}

// Remember records key -> orderID. An existing mapping is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	return s.client.SetNX(ctx, s.key(key), orderID, s.ttl).Err()
}

func (s *IdempotencyStore) key(key string) string {
	return "idem:order:" + key
}

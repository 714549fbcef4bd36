package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const defaultSnapshotKey = "marketplace:snapshot"

// SnapshotStore keeps the whole marketplace graph as one JSON value.
type SnapshotStore struct {
	client *redis.Client
	key    string
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore stores under key, or defaultSnapshotKey when key is empty.
func NewSnapshotStore(client *redis.Client, key string) *SnapshotStore {
	if key == "" {
		key = defaultSnapshotKey
	}
	return &SnapshotStore{client: client, key: key}
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis load snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("redis decode snapshot: %w", err)
	}
	snap.Normalize()
	return &snap, nil
}

// Save overwrites the value with no expiry. SET is atomic for readers.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

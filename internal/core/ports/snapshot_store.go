package ports

import (
	"context"
	"errors"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

// ErrNoSnapshot is returned by Load when nothing has been persisted yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SnapshotStore persists the full marketplace graph as one unit.
type SnapshotStore interface {
	// Load returns the latest snapshot, or ErrNoSnapshot on first run.
	Load(ctx context.Context) (*domain.Snapshot, error)
	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (orderID string, found bool, err error)
	Remember(ctx context.Context, key, orderID string) error
}

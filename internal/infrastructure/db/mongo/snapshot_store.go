package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const (
	collectionSnapshots = "snapshots"
	currentSnapshotID   = "current"
)

// snapshotDocument wraps the marketplace graph in a single document.
type snapshotDocument struct {
	ID       string           `bson:"_id"`
	Version  int64            `bson:"version"`
	Snapshot *domain.Snapshot `bson:"snapshot"`
}

// SnapshotStore implements ports.SnapshotStore on a single MongoDB document.
type SnapshotStore struct {
	col *mongo.Collection
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore(db *mongo.Database) *SnapshotStore {
	return &SnapshotStore{col: db.Collection(collectionSnapshots)}
}

// Load returns the stored snapshot, or ports.ErrNoSnapshot when none exists.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc snapshotDocument
	err := s.col.FindOne(ctx, bson.M{"_id": currentSnapshotID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNoSnapshot
		}
		return nil, fmt.Errorf("mongo load snapshot: %w", err)
	}
	if doc.Snapshot == nil {
		return nil, ports.ErrNoSnapshot
	}
	doc.Snapshot.Normalize()
	return doc.Snapshot, nil
}

// Save replaces the stored document in one write.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	doc := snapshotDocument{ID: currentSnapshotID, Version: snap.Version, Snapshot: snap}
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": currentSnapshotID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo save snapshot: %w", err)
	}
	return nil
}

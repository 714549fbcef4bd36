package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

func sampleSnapshot() *domain.Snapshot {
	at := time.Date(2026, 3, 1, 10, 0, 0, 123_000_000, time.UTC)
	snap := domain.NewSnapshot()
	snap.Version = 3
	snap.Clients = append(snap.Clients, &domain.Client{ID: "c1", Name: "Ivan", Email: "ivan@example.com", RegisteredAt: at})
	snap.Executors = append(snap.Executors, &domain.Executor{ID: "alexander", Name: "Alexander"})
	snap.Orders = append(snap.Orders, &domain.Order{
		ID: "0190-a", ClientID: "c1", Status: domain.StatusInProgress, Budget: 1000,
		AssignedExecutorID: "alexander", AssignedAt: &at, CreatedAt: at, UpdatedAt: at,
	})
	snap.Messages["0190-a"] = []*domain.Message{
		{ID: "m1", OrderID: "0190-a", SenderID: domain.SystemSenderID, SenderRole: domain.RoleSystem, Text: "Order created. Awaiting an executor.", Timestamp: at},
	}
	return snap
}

// The document layout must survive BSON encoding with millisecond timestamps.
func TestSnapshotDocument_BSONFidelity(t *testing.T) {
	want := sampleSnapshot()

	raw, err := bson.Marshal(snapshotDocument{ID: currentSnapshotID, Version: want.Version, Snapshot: want})
	require.NoError(t, err)

	var got snapshotDocument
	require.NoError(t, bson.Unmarshal(raw, &got))
	require.Equal(t, currentSnapshotID, got.ID)
	require.Equal(t, int64(3), got.Version)

	if diff := cmp.Diff(want, got.Snapshot); diff != "" {
		t.Fatalf("snapshot changed through BSON (-want +got):\n%s", diff)
	}
}

func TestSnapshotStore_Integration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{URI: uri, Database: "marketplace_test_" + time.Now().Format("150405")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	store := NewSnapshotStore(db)
	_, err = store.Load(ctx)
	require.True(t, errors.Is(err, ports.ErrNoSnapshot), "expected ErrNoSnapshot, got %v", err)

	snap := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap))
	snap.Version = 4
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), loaded.Version)
	require.Len(t, loaded.Orders, 1)

	log := NewEventLog(db)
	require.NoError(t, log.EnsureIndexes(ctx))
	require.NoError(t, log.Handle(ctx, domain.OrderEvent{Type: domain.EventOrderCreated, OrderID: "0190-a", ClientID: "c1", At: time.Now()}))
	n, err := db.Collection(collectionOrderEvents).CountDocuments(ctx, bson.M{"order_id": "0190-a"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

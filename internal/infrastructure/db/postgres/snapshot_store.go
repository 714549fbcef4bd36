package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const currentSnapshotID = "current"

const schema = `
CREATE TABLE IF NOT EXISTS marketplace_snapshots (
	id       TEXT PRIMARY KEY,
	version  BIGINT NOT NULL,
	payload  JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`

type snapshotRow struct {
	Version int64  `db:"version"`
	Payload []byte `db:"payload"`
}

// SnapshotStore keeps the marketplace graph as a single jsonb row.
type SnapshotStore struct {
	db *sqlx.DB
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// EnsureSchema creates the snapshot table when missing.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres ensure schema: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `
		SELECT version, payload
		FROM marketplace_snapshots
		WHERE id = $1
	`, currentSnapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("postgres load snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return nil, fmt.Errorf("postgres decode snapshot: %w", err)
	}
	snap.Version = row.Version
	snap.Normalize()
	return &snap, nil
}

// Save upserts the single snapshot row.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO marketplace_snapshots (id, version, payload, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at
	`, currentSnapshotID, snap.Version, payload, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("postgres save snapshot: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// Layered writes every snapshot to a local store first and then to a remote
// one. A remote failure leaves the local copy ahead and is reported as
// domain.ErrSyncPending.
type Layered struct {
	local  ports.SnapshotStore
	remote ports.SnapshotStore
	log    zerolog.Logger
}

var _ ports.SnapshotStore = (*Layered)(nil)

func NewLayered(local, remote ports.SnapshotStore, log zerolog.Logger) *Layered {
	return &Layered{local: local, remote: remote, log: log}
}

// Load returns whichever copy carries the higher version. If the remote is
// unreachable the local copy is used; with no local copy the remote error is
// returned so a fresh node never overwrites remote data with an empty state.
// An unreadable local copy with nothing stored remotely is an error, never a
// first run.
func (l *Layered) Load(ctx context.Context) (*domain.Snapshot, error) {
	local, lerr := l.local.Load(ctx)
	localBroken := lerr != nil && !errors.Is(lerr, ports.ErrNoSnapshot)
	if localBroken {
		l.log.Warn().Err(lerr).Msg("local snapshot unreadable, using remote")
		local = nil
	}
	remote, rerr := l.remote.Load(ctx)
	if rerr != nil && !errors.Is(rerr, ports.ErrNoSnapshot) {
		if local == nil {
			return nil, fmt.Errorf("remote snapshot: %w", rerr)
		}
		l.log.Warn().Err(rerr).Int64("version", local.Version).Msg("remote snapshot unavailable, using local copy")
		return local, nil
	}

	switch {
	case localBroken && remote == nil:
		return nil, fmt.Errorf("local snapshot: %w", lerr)
	case local == nil && remote == nil:
		return nil, ports.ErrNoSnapshot
	case remote == nil:
		return local, nil
	case local == nil:
		return remote, nil
	case local.Version > remote.Version:
		l.log.Info().Int64("local", local.Version).Int64("remote", remote.Version).Msg("local snapshot is newer")
		return local, nil
	default:
		return remote, nil
	}
}

func (l *Layered) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := l.local.Save(ctx, snap); err != nil {
		return fmt.Errorf("local save: %w", err)
	}
	if err := l.remote.Save(ctx, snap); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSyncPending, err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sitecore/order-marketplace/internal/api/handler"
	"github.com/sitecore/order-marketplace/internal/api/metrics"
	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
	"github.com/sitecore/order-marketplace/internal/core/service"
	"github.com/sitecore/order-marketplace/internal/infrastructure/bootstrap"
	"github.com/sitecore/order-marketplace/internal/infrastructure/config"
	mongostore "github.com/sitecore/order-marketplace/internal/infrastructure/db/mongo"
	pgstore "github.com/sitecore/order-marketplace/internal/infrastructure/db/postgres"
	redisstore "github.com/sitecore/order-marketplace/internal/infrastructure/db/redis"
	"github.com/sitecore/order-marketplace/internal/infrastructure/storage"
	"github.com/sitecore/order-marketplace/pkg/logger"
)

// backend is the storage side of the process: the snapshot store selected by
// STORAGE_DRIVER, idempotency keys, readiness checks and the event handlers
// that only exist for some drivers.
type backend struct {
	store       ports.SnapshotStore
	idempotency ports.IdempotencyStore
	checks      []handler.DependencyCheck
	handlers    []ports.EventHandler
	closers     []func(context.Context) error
}

// Close releases connections in reverse order of acquisition.
func (b *backend) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// openBackend connects the configured driver. Remote drivers are layered over
// the local snapshot file so the service keeps working while the remote is
// unreachable.
func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	local := storage.NewFileStore(cfg.Storage.LocalPath)
	b := &backend{idempotency: storage.NewMemoryIdempotency()}

	var remote ports.SnapshotStore
	switch cfg.Storage.Driver {
	case config.DriverFile:

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Disconnect)
		eventLog := mongostore.NewEventLog(db)
		if err := eventLog.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("order event indexes not created")
		}
		remote = mongostore.NewSnapshotStore(db)
		b.handlers = append(b.handlers, eventLog)
		b.checks = append(b.checks, handler.DependencyCheck{Name: "mongodb", Check: func(ctx context.Context) error {
			return mongostore.Ping(ctx, db)
		}})

	case config.DriverRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
		remote = redisstore.NewSnapshotStore(client, "")
		b.idempotency = redisstore.NewIdempotencyStore(client, 0)
		b.checks = append(b.checks, handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})

	case config.DriverPostgres:
		db, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return db.Close() })
		pg := pgstore.NewSnapshotStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		remote = pg
		b.checks = append(b.checks, handler.DependencyCheck{Name: "postgres", Check: db.PingContext})

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if remote == nil {
		b.store = local
	} else {
		b.store = storage.NewLayered(local, remote, log.With().Str("component", "storage").Logger())
	}
	b.store = metrics.InstrumentStore(b.store)
	return b, nil
}

// openMarketplace loads state from the backend and provisions executors.
func openMarketplace(ctx context.Context, cfg *config.Config, b *backend, events ports.EventPublisher) (*service.Marketplace, error) {
	seeds, err := bootstrap.LoadExecutors(cfg.Marketplace.ExecutorsFile)
	if err != nil {
		return nil, err
	}
	return service.NewMarketplace(ctx, service.Deps{
		Store:       b.store,
		Idempotency: b.idempotency,
		Events:      events,
		Executors:   seeds,
		Limits: domain.Limits{
			MinBudget:       cfg.Marketplace.MinBudget,
			MinDeadlineDays: cfg.Marketplace.MinDeadlineDays,
		},
		PersistTimeout: cfg.Marketplace.PersistTimeout,
		Logger:         logger.Component("marketplace"),
	})
}

// setup loads configuration and initialises the process logger.
func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: appName,
	})
	return cfg, log, nil
}

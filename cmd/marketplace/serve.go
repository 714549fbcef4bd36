package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitecore/order-marketplace/internal/api"
	"github.com/sitecore/order-marketplace/internal/api/handler"
	"github.com/sitecore/order-marketplace/internal/api/metrics"
	"github.com/sitecore/order-marketplace/internal/core/ports"
	"github.com/sitecore/order-marketplace/internal/core/service"
	"github.com/sitecore/order-marketplace/internal/infrastructure/messaging"
	"github.com/sitecore/order-marketplace/internal/infrastructure/queue"
	"github.com/sitecore/order-marketplace/internal/infrastructure/scheduler"
	"github.com/sitecore/order-marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
		log.Warn().Msg("JWT_SECRET not set, using an insecure development secret")
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("closing storage connections")
		}
	}()

	handlers := append([]ports.EventHandler{metrics.Recorder{}}, b.handlers...)
	if cfg.NATS.URL != "" {
		nc, err := messaging.Connect(messaging.Config{URL: cfg.NATS.URL, Name: appName})
		if err != nil {
			return err
		}
		defer nc.Close()
		handlers = append(handlers, messaging.NewPublisher(nc, ""))
		log.Info().Str("url", cfg.NATS.URL).Msg("publishing order events to NATS")
	}

	dispatcher := queue.NewDispatcher(cfg.Marketplace.EventWorkers, logger.Component("dispatcher"), handlers...)
	metrics.RegisterDroppedEvents(dispatcher.Dropped)
	eventsCtx, stopEvents := context.WithCancel(context.Background())
	dispatcher.Start(eventsCtx)
	defer func() {
		stopEvents()
		dispatcher.Wait()
	}()

	market, err := openMarketplace(ctx, cfg, b, dispatcher)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(context.Background(), cfg.Storage.SyncSchedule, market, logger.Component("scheduler"))
	if err != nil {
		return err
	}
	sched.Start()

	checks := append(b.checks, handler.DependencyCheck{Name: "snapshot_sync", Check: func(context.Context) error {
		if market.SyncPending() {
			return errors.New("snapshot not yet persisted")
		}
		return nil
	}})

	e := api.NewRouter(api.RouterConfig{
		Marketplace: market,
		Auth:        service.NewAuthService(market, cfg.JWTSecret, cfg.TokenTTL),
		JWTSecret:   cfg.JWTSecret,
		LoginRate:   cfg.Login.Rate,
		LoginBurst:  cfg.Login.Burst,
		Checks:      checks,
		Logger:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("storage", cfg.Storage.Driver).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			sched.Stop()
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	sched.Stop()
	if err := market.Flush(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("final snapshot flush failed")
	}
	log.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/stn-picking/internal/analytics/router"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/internal/analytics/worker"
	"github.com/angelmondragon/stn-picking/internal/analytics/writer"
	"github.com/angelmondragon/stn-picking/pkg/bigquery"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/env"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/outbox/idempotency"
	"github.com/angelmondragon/stn-picking/pkg/pubsub"
	"github.com/angelmondragon/stn-picking/pkg/redis"
)

const (
	serviceKind  = "analytics-worker"
	flushTimeout = 30 * time.Second
)

// clients holds the connections the worker opens, closed newest first.
type clients struct {
	redis   *redis.Client
	pubsub  *pubsub.Client
	bq      *bigquery.Client
	closers []func() error
}

func (c *clients) track(closeFn func() error) {
	c.closers = append(c.closers, closeFn)
}

func (c *clients) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

func openClients(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*clients, error) {
	c := &clients{}
	var err error

	if c.redis, err = redis.New(ctx, cfg.Redis, logg); err != nil {
		return c, fmt.Errorf("redis: %w", err)
	}
	c.track(c.redis.Close)

	if c.pubsub, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg); err != nil {
		return c, fmt.Errorf("pubsub: %w", err)
	}
	c.track(c.pubsub.Close)

	if c.bq, err = bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg); err != nil {
		return c, fmt.Errorf("bigquery: %w", err)
	}
	c.track(c.bq.Close)

	createTables := cfg.App.IsDev() || cfg.FeatureFlags.AutoMigrate
	err = c.bq.EnsureTables(ctx, createTables,
		types.ScanFactsTable(cfg.BigQuery.ScanFactsTable),
		types.PickListFactsTable(cfg.BigQuery.PickListFactsTable),
	)
	if err != nil {
		return c, fmt.Errorf("bigquery fact tables: %w", err)
	}
	return c, nil
}

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceKind})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logg.WithFields(ctx, map[string]any{
		"instance":    env.Instance(),
		"serviceKind": serviceKind,
	})

	err = run(ctx, cfg, logg)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	conns, err := openClients(context.WithoutCancel(ctx), cfg, logg)
	defer func() {
		if cerr := conns.Close(); cerr != nil {
			logg.Error(ctx, "error closing clients", cerr)
		}
	}()
	if err != nil {
		return err
	}

	subscription := conns.pubsub.AnalyticsSubscription()
	if subscription == nil {
		return errors.New("analytics subscription not configured")
	}
	marks, err := idempotency.NewManager(conns.redis, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}
	facts, err := writer.New(conns.bq, writer.Config{
		ScanFactsTable:     cfg.BigQuery.ScanFactsTable,
		PickListFactsTable: cfg.BigQuery.PickListFactsTable,
		BatchSize:          cfg.BigQuery.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("fact writer: %w", err)
	}
	routes, err := router.NewRouter(facts, logg, nil)
	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	service, err := worker.NewService(subscription, routes, marks, logg)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	logg.Info(ctx, "analytics worker ready")
	runErr := service.Run(ctx)

	// held rows go out even when the subscription loop failed
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := facts.Flush(flushCtx); err != nil {
		logg.Error(flushCtx, "failed to flush buffered facts", err)
	}
	return runErr
}

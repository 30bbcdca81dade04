package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/cron"
	"github.com/angelmondragon/stn-picking/internal/picklists"
	"github.com/angelmondragon/stn-picking/internal/scanlogs"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/env"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/metrics"
	"github.com/angelmondragon/stn-picking/pkg/migrate"
	"github.com/angelmondragon/stn-picking/pkg/outbox"
	"github.com/angelmondragon/stn-picking/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}
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
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	boot := context.WithoutCancel(ctx)

	dbClient, err := db.New(boot, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	if err := migrate.MaybeRunDev(boot, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(boot, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	jobs, err := buildJobs(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	// one lock per environment so staging and prod workers never block each other
	lockEnv := cfg.App.Env
	if lockEnv == "" {
		lockEnv = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceKind+":"+lockEnv), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.Cron.MetricsAddr, prometheus.DefaultGatherer, logg); err != nil {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

// buildJobs registers the stale pick-list sweep on every tick and the outbox
// retention purge on its own slower cadence.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	pickLists, err := newPickListService(cfg, logg, dbClient, redisClient)
	if err != nil {
		return nil, fmt.Errorf("pick list service: %w", err)
	}
	stale, err := cron.NewStalePickListJob(cron.StalePickListJobParams{
		Logger:    logg,
		PickLists: pickLists,
		MaxAge:    cfg.Cron.StalePickListAge,
	})
	if err != nil {
		return nil, fmt.Errorf("stale pick list job: %w", err)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Retention:     cfg.Cron.OutboxRetentionDays,
		DLQRetention:  cfg.Cron.OutboxDLQRetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	jobs := cron.NewRegistry(stale)
	jobs.Schedule(retention, cfg.Cron.OutboxRetentionEvery)
	return jobs, nil
}

func newPickListService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (picklists.Service, error) {
	products := catalog.NewRepository(dbClient.DB())
	resolver, err := catalog.NewResolver(products)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Picking.Location()
	if err != nil {
		return nil, err
	}
	sequence, err := picklists.NewSequenceGenerator(redisClient, loc, cfg.Picking.SequenceTTL)
	if err != nil {
		return nil, err
	}
	return picklists.NewService(picklists.ServiceParams{
		Repo:     picklists.NewRepository(dbClient.DB()),
		ScanLogs: scanlogs.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Resolver: resolver,
		Products: products,
		Sequence: sequence,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:   logg,
		Config:   cfg.Picking,
	})
}

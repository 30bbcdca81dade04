package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stn-picking/api/routes"
	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/analytics/query"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/picklists"
	"github.com/angelmondragon/stn-picking/internal/scanlogs"
	"github.com/angelmondragon/stn-picking/pkg/bigquery"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/env"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/metrics"
	"github.com/angelmondragon/stn-picking/pkg/migrate"
	"github.com/angelmondragon/stn-picking/pkg/outbox"
	"github.com/angelmondragon/stn-picking/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	loc, err := cfg.Picking.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid picking timezone", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	resolver, err := catalog.NewResolver(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create scan resolver", err)
		os.Exit(1)
	}

	sequence, err := picklists.NewSequenceGenerator(redisClient, loc, cfg.Picking.SequenceTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create pick list sequence", err)
		os.Exit(1)
	}

	scanLogs := scanlogs.NewRepository(dbClient.DB())
	pickListService, err := picklists.NewService(picklists.ServiceParams{
		Repo:     picklists.NewRepository(dbClient.DB()),
		ScanLogs: scanLogs,
		Tx:       dbClient,
		Resolver: resolver,
		Products: catalogRepo,
		Sequence: sequence,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:  metrics.NewScanMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
		Config:   cfg.Picking,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pick list service", err)
		os.Exit(1)
	}

	var trends query.TrendService
	if strings.TrimSpace(cfg.GCP.ProjectID) != "" {
		bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		err = bqClient.EnsureTables(context.Background(), false,
			types.ScanFactsTable(cfg.BigQuery.ScanFactsTable),
			types.PickListFactsTable(cfg.BigQuery.PickListFactsTable),
		)
		if err != nil {
			logg.Error(context.Background(), "bigquery fact tables unavailable", err)
			os.Exit(1)
		}
		trends, err = query.NewTrendService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.ScanFactsTable, cfg.BigQuery.PickListFactsTable, loc.String())
		if err != nil {
			logg.Error(context.Background(), "failed to create trend service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcp project not configured, trends disabled")
	}

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Repo:     analytics.NewRepository(dbClient.DB()),
		ScanLogs: scanLogs,
		Products: catalogRepo,
		Trends:   trends,
		Location: loc,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"addr":     addr,
		"instance": env.Instance(),
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Gatherer:    prometheus.DefaultGatherer,
			PickLists:   pickListService,
			Catalog:     catalogService,
			Analytics:   analyticsService,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

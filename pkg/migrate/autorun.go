package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

// MaybeRunDev applies the embedded migrations at boot when the service runs
// in dev with STN_AUTO_MIGRATE set. Every long-running binary calls it; the
// advisory lock in Runner serialises them.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	src, err := Source("")
	if err != nil {
		return err
	}
	runner, err := NewRunner(sqlDB, src)
	if err != nil {
		return err
	}

	pending, err := runner.Pending(ctx)
	if err != nil {
		return fmt.Errorf("checking pending migrations: %w", err)
	}
	if !pending {
		logg.Debug(ctx, "schema up to date")
		return nil
	}

	results, err := runner.Up(ctx)
	for _, res := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration applied")
	}
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/migrate"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; empty uses the set built into the binary")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version; empty prints the current one")
	flag.Parse()

	if err := run(*cmd, *dir, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir, name, version string) error {
	// create and validate only touch the filesystem
	switch cmd {
	case "create":
		if name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		src, err := migrate.Source(dir)
		if err != nil {
			return err
		}
		files, err := migrate.Scan(src)
		if err != nil {
			return err
		}
		fmt.Printf("migration validation passed (%d files, latest %d)\n", len(files), files[len(files)-1].Version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd": cmd,
		"dir": dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	src, err := migrate.Source(dir)
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, src)
	if err != nil {
		return err
	}

	logg.Info(ctx, "migrate ready")
	var results []*goose.MigrationResult
	switch cmd {
	case "up":
		results, err = runner.Up(ctx)
	case "down":
		results, err = runner.Down(ctx)
	case "redo":
		results, err = runner.Redo(ctx)
	case "status":
		return printStatus(ctx, runner)
	case "version":
		if version == "" {
			current, err := runner.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Println("current version:", current)
			return nil
		}
		target, perr := migrate.ParseVersion(version)
		if perr != nil {
			return perr
		}
		results, err = runner.To(ctx, target)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
	for _, res := range results {
		fmt.Println(res)
	}
	return err
}

func printStatus(ctx context.Context, runner *migrate.Runner) error {
	statuses, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Printf("%-8s %-25s %s\n", st.State, applied, filepath.Base(st.Source.Path))
	}
	return nil
}

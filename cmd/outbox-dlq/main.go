package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/outbox"
)

// dlqStore is what the command needs from outbox.DLQRepository.
type dlqStore interface {
	List(ctx context.Context, filter outbox.DLQFilter) ([]models.OutboxDLQ, error)
	Replay(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*models.OutboxEvent, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "list", "dlq command: list|replay")
	reason := flag.String("reason", "", "only list entries with this error reason")
	limit := flag.Int("limit", 50, "maximum entries to list")
	event := flag.String("event", "", "event id to replay (for replay)")
	flag.Parse()

	if err := run(*cmd, *reason, *limit, *event); err != nil {
		fmt.Fprintf(os.Stderr, "outbox-dlq %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, reason string, limit int, event string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-dlq",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "cmd", cmd)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer dbClient.Close()

	repo := outbox.NewDLQRepository(dbClient.DB())
	switch cmd {
	case "list":
		return list(ctx, os.Stdout, repo, reason, limit)
	case "replay":
		if err := replay(ctx, dbClient, repo, event); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "event_id", event), "dlq event requeued")
		fmt.Println("requeued", event)
		return nil
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
}

func list(ctx context.Context, out io.Writer, repo dlqStore, reason string, limit int) error {
	filter := outbox.DLQFilter{Limit: limit}
	if reason != "" {
		parsed, err := enums.ParseOutboxDLQErrorReason(reason)
		if err != nil {
			return err
		}
		filter.Reason = parsed
	}
	entries, err := repo.List(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT ID\tTYPE\tREASON\tATTEMPTS\tFAILED AT\tERROR")
	for _, e := range entries {
		msg := ""
		if e.ErrorMessage != nil {
			msg = *e.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.EventID, e.EventType, e.ErrorReason, e.AttemptCount, e.FailedAt.UTC().Format(time.RFC3339), msg)
	}
	return tw.Flush()
}

func replay(ctx context.Context, txs txRunner, repo dlqStore, event string) error {
	if event == "" {
		return errors.New("missing -event for replay")
	}
	eventID, err := uuid.Parse(event)
	if err != nil {
		return fmt.Errorf("invalid -event: %w", err)
	}
	return txs.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := repo.Replay(ctx, tx, eventID)
		return err
	})
}

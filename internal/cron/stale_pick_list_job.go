package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/logger"
)

const (
	defaultStalePickListAge = 36 * time.Hour
	staleCancelReason       = "stale: never started"
)

type StalePickListJobParams struct {
	Logger    *logger.Logger
	PickLists staleCanceller
	MaxAge    time.Duration
}

type staleCanceller interface {
	CancelStale(ctx context.Context, cutoff time.Time, reason string) (int, error)
}

// NewStalePickListJob cancels PENDING pick lists that nobody started within MaxAge.
func NewStalePickListJob(params StalePickListJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PickLists == nil {
		return nil, fmt.Errorf("pick list service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStalePickListAge
	}
	return &stalePickListJob{
		logg:      params.Logger,
		pickLists: params.PickLists,
		maxAge:    maxAge,
		now:       time.Now,
	}, nil
}

type stalePickListJob struct {
	logg      *logger.Logger
	pickLists staleCanceller
	maxAge    time.Duration
	now       func() time.Time
}

func (j *stalePickListJob) Name() string { return "stale_pick_list_cancel" }

func (j *stalePickListJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	cancelled, err := j.pickLists.CancelStale(ctx, cutoff, staleCancelReason)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"max_age":   j.maxAge.String(),
		"cancelled": cancelled,
	})
	if err != nil {
		return fmt.Errorf("cancel stale pick lists: %w", err)
	}
	j.logg.Info(logCtx, "stale pick lists cancelled")
	return nil
}

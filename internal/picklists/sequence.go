package picklists

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/redis"
)

const (
	sequenceCounterName = "picklist_seq"
	codeDateLayout      = "20060102"
)

// SequenceGenerator hands out PL-YYYYMMDD-NNN codes from a per-day Redis counter.
type SequenceGenerator struct {
	counter redis.Counter
	loc     *time.Location
	ttl     time.Duration
	now     func() time.Time
}

// NewSequenceGenerator builds a generator; dates are taken in loc.
func NewSequenceGenerator(counter redis.Counter, loc *time.Location, ttl time.Duration) (*SequenceGenerator, error) {
	if counter == nil {
		return nil, fmt.Errorf("counter required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &SequenceGenerator{counter: counter, loc: loc, ttl: ttl, now: time.Now}, nil
}

// Next draws the next code for the current day.
func (g *SequenceGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().In(g.loc).Format(codeDateLayout)
	n, err := g.counter.IncrWithTTL(ctx, g.counter.CounterKey(sequenceCounterName, day), g.ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate pick list sequence")
	}
	return FormatCode(day, n), nil
}

// FormatCode renders PL-<day>-<seq>, padding seq to at least three digits.
func FormatCode(day string, seq int64) string {
	return fmt.Sprintf("PL-%s-%03d", day, seq)
}

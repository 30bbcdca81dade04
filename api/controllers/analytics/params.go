package analytics

import (
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
)

const (
	maxLimit     = 200
	maxBranchLen = 100

	defaultTrendPreset = "30d"
	maxTrendWindow     = 366 * 24 * time.Hour
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

var trendPresets = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// resolveTrendRange reads an explicit from/to pair or falls back to a preset
// ending now. Bounds are RFC3339 timestamps or plain dates; a plain "to"
// date covers that whole day.
func resolveTrendRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from == "" && to == "" {
		preset := strings.ToLower(strings.TrimSpace(query.Get("preset")))
		if preset == "" {
			preset = defaultTrendPreset
		}
		window, ok := trendPresets[preset]
		if !ok {
			return time.Time{}, time.Time{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid preset %q", preset)
		}
		return now.Add(-window), now, nil
	}
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
	}

	start, _, err := parseTrendBound("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, dateOnly, err := parseTrendBound("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		end = end.Add(24 * time.Hour)
	}

	switch {
	case !end.After(start):
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	case end.Sub(start) > maxTrendWindow:
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "range may not exceed one year")
	}
	return start, end, nil
}

func parseTrendBound(field, value string) (time.Time, bool, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), false, nil
	}
	if day, err := time.Parse(time.DateOnly, value); err == nil {
		return day, true, nil
	}
	return time.Time{}, false, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s: use RFC3339 or YYYY-MM-DD", field)
}

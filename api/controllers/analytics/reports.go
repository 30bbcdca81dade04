package analytics

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

// report turns a query function into a handler. Parse and service errors go
// through the shared error envelope.
func report[T any](logg *logger.Logger, query func(context.Context, *http.Request) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := query(r.Context(), r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func branchParam(r *http.Request) string {
	return validators.ParseQueryString(r, "branch", maxBranchLen)
}

func Summary(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) (*analytics.Summary, error) {
		return service.Summary(ctx, branchParam(r), validators.ParseQueryString(r, "date", 10))
	})
}

func BranchWise(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.BranchStats, error) {
		input, err := rangeInput(r, 0)
		if err != nil {
			return nil, err
		}
		return service.BranchWise(ctx, input)
	})
}

func ProductWise(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.ProductStats, error) {
		input, err := rangeInput(r, 20)
		if err != nil {
			return nil, err
		}
		return service.ProductWise(ctx, input)
	})
}

func DailySummary(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.DailyStats, error) {
		days, err := validators.ParseQueryInt(r, "days", 7, 1, 90)
		if err != nil {
			return nil, err
		}
		return service.DailySummary(ctx, branchParam(r), days)
	})
}

func ErrorAnalysis(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.ResultCount, error) {
		input, err := rangeInput(r, 0)
		if err != nil {
			return nil, err
		}
		return service.ErrorAnalysis(ctx, input)
	})
}

func RecentScans(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.RecentScan, error) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxLimit)
		if err != nil {
			return nil, err
		}
		return service.RecentScans(ctx, branchParam(r), limit)
	})
}

func CategoryStats(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, _ *http.Request) ([]analytics.CategoryStats, error) {
		return service.CategoryStats(ctx)
	})
}

func BrandStats(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) ([]analytics.BrandStats, error) {
		limit, err := validators.ParseQueryInt(r, "limit", 15, 1, maxLimit)
		if err != nil {
			return nil, err
		}
		return service.BrandStats(ctx, limit)
	})
}

// Trends serves the BigQuery-backed series.
func Trends(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return report(logg, func(ctx context.Context, r *http.Request) (*types.TrendQueryResponse, error) {
		start, end, err := resolveTrendRange(r, timeNowUTC())
		if err != nil {
			return nil, err
		}
		return service.Trends(ctx, types.TrendQueryRequest{Branch: branchParam(r), Start: start, End: end})
	})
}

func rangeInput(r *http.Request, defaultLimit int) (analytics.RangeInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 0, maxLimit)
	if err != nil {
		return analytics.RangeInput{}, err
	}
	return analytics.RangeInput{
		Branch:    branchParam(r),
		StartDate: validators.ParseQueryString(r, "startDate", 10),
		EndDate:   validators.ParseQueryString(r, "endDate", 10),
		Limit:     limit,
	}, nil
}

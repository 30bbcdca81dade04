package analytics

import (
	"context"

	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
)

type stubService struct {
	lastBranch string
	lastDate   string
	lastDays   int
	lastLimit  int
	lastRange  analytics.RangeInput
	lastTrend  types.TrendQueryRequest
	err        error
}

func (s *stubService) Summary(ctx context.Context, branch, date string) (*analytics.Summary, error) {
	s.lastBranch, s.lastDate = branch, date
	if s.err != nil {
		return nil, s.err
	}
	return &analytics.Summary{Date: date}, nil
}

func (s *stubService) BranchWise(ctx context.Context, input analytics.RangeInput) ([]analytics.BranchStats, error) {
	s.lastRange = input
	return []analytics.BranchStats{{Branch: "BLR-01", TotalPickLists: 2}}, s.err
}

func (s *stubService) ProductWise(ctx context.Context, input analytics.RangeInput) ([]analytics.ProductStats, error) {
	s.lastRange = input
	return nil, s.err
}

func (s *stubService) DailySummary(ctx context.Context, branch string, days int) ([]analytics.DailyStats, error) {
	s.lastBranch, s.lastDays = branch, days
	return nil, s.err
}

func (s *stubService) ErrorAnalysis(ctx context.Context, input analytics.RangeInput) ([]analytics.ResultCount, error) {
	s.lastRange = input
	return nil, s.err
}

func (s *stubService) RecentScans(ctx context.Context, branch string, limit int) ([]analytics.RecentScan, error) {
	s.lastBranch, s.lastLimit = branch, limit
	return nil, s.err
}

func (s *stubService) CategoryStats(ctx context.Context) ([]analytics.CategoryStats, error) {
	return nil, s.err
}

func (s *stubService) BrandStats(ctx context.Context, limit int) ([]analytics.BrandStats, error) {
	s.lastLimit = limit
	return nil, s.err
}

func (s *stubService) Trends(ctx context.Context, req types.TrendQueryRequest) (*types.TrendQueryResponse, error) {
	s.lastTrend = req
	if s.err != nil {
		return nil, s.err
	}
	return &types.TrendQueryResponse{AvgResponseTimeMS: 12.5}, nil
}

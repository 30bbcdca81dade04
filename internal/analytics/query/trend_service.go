package query

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"google.golang.org/api/iterator"
)

const (
	scanSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at, @tz)) AS day,
  COUNTIF(%s) AS value
FROM %s
WHERE %s
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	completedSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at, @tz)) AS day,
  COUNT(*) AS value
FROM %s
WHERE %s
  AND event_type = 'pick_list_completed'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topProductsSQL = `
SELECT product_code AS label, COUNT(*) AS value
FROM %s
WHERE %s
  AND is_match
  AND product_code IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
LIMIT 10
`

	topStrategiesSQL = `
SELECT strategy AS label, COUNT(*) AS value
FROM %s
WHERE %s
  AND strategy IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
`

	avgResponseSQL = `
SELECT AVG(response_time_ms) AS value
FROM %s
WHERE %s
  AND occurred_at BETWEEN @start AND @end
`
)

// TrendService reads scan trends from the BigQuery fact tables.
type TrendService interface {
	Query(ctx context.Context, req types.TrendQueryRequest) (*types.TrendQueryResponse, error)
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
}

type trendService struct {
	client       rowQuerier
	scanTable    string
	pickTable    string
	timezoneName string
}

// NewTrendService builds a service over `project.dataset.table` references.
func NewTrendService(client rowQuerier, project, dataset, scanTable, pickListTable, timezone string) (TrendService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || scanTable == "" || pickListTable == "" {
		return nil, fmt.Errorf("project, dataset, and tables are required")
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	return &trendService{
		client:       client,
		scanTable:    fmt.Sprintf("`%s.%s.%s`", project, dataset, scanTable),
		pickTable:    fmt.Sprintf("`%s.%s.%s`", project, dataset, pickListTable),
		timezoneName: timezone,
	}, nil
}

func (s *trendService) Query(ctx context.Context, req types.TrendQueryRequest) (*types.TrendQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	branchClause := buildBranchClause(req.Branch)
	params := s.baseParams(req)

	scans, err := s.querySeries(ctx, fmt.Sprintf(scanSeriesSQL, "TRUE", s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}
	matched, err := s.querySeries(ctx, fmt.Sprintf(scanSeriesSQL, "is_match", s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}
	errorsSeries, err := s.querySeries(ctx, fmt.Sprintf(scanSeriesSQL, "NOT is_match", s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}
	completed, err := s.querySeries(ctx, fmt.Sprintf(completedSeriesSQL, s.pickTable, branchClause), params)
	if err != nil {
		return nil, err
	}

	topProducts, err := s.queryTopLabels(ctx, fmt.Sprintf(topProductsSQL, s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}
	topStrategies, err := s.queryTopLabels(ctx, fmt.Sprintf(topStrategiesSQL, s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}

	avg, err := s.queryAverage(ctx, fmt.Sprintf(avgResponseSQL, s.scanTable, branchClause), params)
	if err != nil {
		return nil, err
	}

	return &types.TrendQueryResponse{
		ScansSeries:        scans,
		MatchedSeries:      matched,
		ErrorSeries:        errorsSeries,
		CompletedPickLists: completed,
		TopProducts:        topProducts,
		TopStrategies:      topStrategies,
		AvgResponseTimeMS:  avg,
	}, nil
}

func validateRequest(req types.TrendQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func buildBranchClause(branch string) string {
	if strings.TrimSpace(branch) == "" {
		return "TRUE"
	}
	return "branch = @branch"
}

func (s *trendService) baseParams(req types.TrendQueryRequest) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "branch", Value: strings.TrimSpace(req.Branch)},
		{Name: "start", Value: req.Start.UTC()},
		{Name: "end", Value: req.End.UTC()},
		{Name: "tz", Value: s.timezoneName},
	}
}

func (s *trendService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	points := []types.TimeSeriesPoint{}
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *trendService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	result := []types.LabelValue{}
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *trendService) queryAverage(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query average: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading average row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}

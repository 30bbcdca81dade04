package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/stn-picking/internal/analytics/query"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/internal/scanlogs"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

const (
	dateLayout = "2006-01-02"

	defaultProductLimit = 20
	defaultRecentLimit  = 50
	defaultBrandLimit   = 15
	maxReportLimit      = 200
	defaultDays         = 7
	maxDays             = 90

	unknownProductName = "Unknown"
)

// Service provides the picking reports.
type Service interface {
	Summary(ctx context.Context, branch, date string) (*Summary, error)
	BranchWise(ctx context.Context, input RangeInput) ([]BranchStats, error)
	ProductWise(ctx context.Context, input RangeInput) ([]ProductStats, error)
	DailySummary(ctx context.Context, branch string, days int) ([]DailyStats, error)
	ErrorAnalysis(ctx context.Context, input RangeInput) ([]ResultCount, error)
	RecentScans(ctx context.Context, branch string, limit int) ([]RecentScan, error)
	CategoryStats(ctx context.Context) ([]CategoryStats, error)
	BrandStats(ctx context.Context, limit int) ([]BrandStats, error)
	// Trends reads the BigQuery fact tables; it fails with a dependency error when BigQuery is not wired.
	Trends(ctx context.Context, req types.TrendQueryRequest) (*types.TrendQueryResponse, error)
}

type productCatalog interface {
	FindProductsByCodes(ctx context.Context, codes []string) (map[string]models.Product, error)
}

// ServiceParams groups the report dependencies. Trends is optional.
type ServiceParams struct {
	Repo     *Repository
	ScanLogs *scanlogs.Repository
	Products productCatalog
	Trends   query.TrendService
	Location *time.Location
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	scanLogs *scanlogs.Repository
	products productCatalog
	trends   query.TrendService
	loc      *time.Location
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the report service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if params.ScanLogs == nil {
		return nil, fmt.Errorf("scan log repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:     params.Repo,
		scanLogs: params.ScanLogs,
		products: params.Products,
		trends:   params.Trends,
		loc:      loc,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Summary(ctx context.Context, branch, date string) (*Summary, error) {
	branch = strings.TrimSpace(branch)
	day, err := s.dayStart(date)
	if err != nil {
		return nil, err
	}
	end := day.AddDate(0, 0, 1)
	window := Window{From: &day, To: &end}

	statuses, err := s.repo.PickListTotals(ctx, branch, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick list totals")
	}
	results, err := s.repo.ScanResultTotals(ctx, branch, window, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load scan totals")
	}

	out := &Summary{Date: day.Format(dateLayout)}
	for _, row := range statuses {
		out.PickLists.Total += row.Count
		out.Items.Total += row.TotalItems
		out.Items.Picked += row.PickedItems
		out.Items.Errors += row.ErrorCount
		switch row.Status {
		case enums.PickListStatusCompleted:
			out.PickLists.Completed = row.Count
		case enums.PickListStatusInProgress:
			out.PickLists.InProgress = row.Count
		case enums.PickListStatusPending:
			out.PickLists.Pending = row.Count
		case enums.PickListStatusCancelled:
			out.PickLists.Cancelled = row.Count
		}
	}
	out.Items.Pending = max(out.Items.Total-out.Items.Picked, 0)
	out.Items.Progress = percent(out.Items.Picked, out.Items.Total)

	var responseSum, responseCount int64
	for _, row := range results {
		out.Scans.Total += row.Count
		if row.ScanResult == enums.ScanResultSuccess {
			out.Scans.Success = row.Count
		}
		responseSum += row.ResponseSum
		responseCount += row.ResponseCount
	}
	out.Scans.Errors = out.Scans.Total - out.Scans.Success
	out.Scans.ErrorRate = percent(out.Scans.Errors, out.Scans.Total)
	out.Scans.AvgResponseTimeMS = average(responseSum, responseCount)
	return out, nil
}

func (s *service) BranchWise(ctx context.Context, input RangeInput) ([]BranchStats, error) {
	window, err := s.window(input)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.BranchTotals(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load branch totals")
	}
	out := make([]BranchStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, BranchStats(row))
	}
	return out, nil
}

func (s *service) ProductWise(ctx context.Context, input RangeInput) ([]ProductStats, error) {
	window, err := s.window(input)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TopProducts(ctx, window, clampLimit(input.Limit, defaultProductLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product totals")
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.ProductCode)
	}
	products, err := s.products.FindProductsByCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	out := make([]ProductStats, 0, len(rows))
	for _, row := range rows {
		stat := ProductStats{
			ProductCode:       row.ProductCode,
			ProductName:       unknownProductName,
			TotalScans:        row.TotalScans,
			AvgResponseTimeMS: average(row.ResponseSum, row.ResponseCount),
		}
		if p, ok := products[row.ProductCode]; ok {
			stat.ProductName = p.ProductName
			stat.Category = p.Category
			stat.RackID = p.RackID
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *service) DailySummary(ctx context.Context, branch string, days int) ([]DailyStats, error) {
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}
	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	lists, err := s.repo.PickListsSince(ctx, strings.TrimSpace(branch), since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick lists")
	}

	out := []DailyStats{}
	index := map[string]int{}
	for _, list := range lists {
		key := list.CreatedAt.In(s.loc).Format(dateLayout)
		i, ok := index[key]
		if !ok {
			out = append(out, DailyStats{Date: key})
			i = len(out) - 1
			index[key] = i
		}
		out[i].TotalPickLists++
		out[i].TotalItems += int64(list.TotalItems)
		out[i].PickedItems += int64(list.PickedItems)
		out[i].ErrorCount += int64(list.ErrorCount)
	}
	return out, nil
}

func (s *service) ErrorAnalysis(ctx context.Context, input RangeInput) ([]ResultCount, error) {
	window, err := s.window(input)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ScanResultTotals(ctx, strings.TrimSpace(input.Branch), window, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load error totals")
	}
	out := make([]ResultCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ResultCount{ScanResult: row.ScanResult, Count: row.Count})
	}
	return out, nil
}

func (s *service) RecentScans(ctx context.Context, branch string, limit int) ([]RecentScan, error) {
	rows, err := s.scanLogs.List(ctx, scanlogs.Filter{
		Branch: strings.TrimSpace(branch),
		Limit:  clampLimit(limit, defaultRecentLimit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent scans")
	}

	codes := make([]string, 0, len(rows))
	seen := map[string]struct{}{}
	for _, row := range rows {
		if row.ProductCode == nil {
			continue
		}
		if _, ok := seen[*row.ProductCode]; ok {
			continue
		}
		seen[*row.ProductCode] = struct{}{}
		codes = append(codes, *row.ProductCode)
	}
	products, err := s.products.FindProductsByCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	out := make([]RecentScan, 0, len(rows))
	for _, row := range rows {
		scan := RecentScan{
			ID:             row.ID,
			PickListID:     row.PickListID,
			PickListCode:   row.PickListCode,
			ScannedCode:    row.ScannedCode,
			ExpectedCode:   row.ExpectedCode,
			ProductCode:    row.ProductCode,
			IsMatch:        row.IsMatch,
			ScanResult:     row.ScanResult,
			Operator:       row.Operator,
			Branch:         row.Branch,
			DeviceType:     row.DeviceType,
			ResponseTimeMS: row.ResponseTimeMS,
			CreatedAt:      row.CreatedAt,
			ProductName:    unknownProductName,
		}
		if row.ProductCode != nil {
			if p, ok := products[*row.ProductCode]; ok {
				scan.ProductName = p.ProductName
				scan.Brand = p.Brand
				scan.Category = p.Category
			}
		}
		out = append(out, scan)
	}
	return out, nil
}

func (s *service) CategoryStats(ctx context.Context) ([]CategoryStats, error) {
	totals, err := s.repo.CategoryTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category totals")
	}
	scans, err := s.repo.CategoryScans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category scans")
	}
	scanCounts := make(map[string]int64, len(scans))
	for _, row := range scans {
		scanCounts[row.Category] = row.ScanCount
	}

	out := make([]CategoryStats, 0, len(totals))
	for _, row := range totals {
		out = append(out, CategoryStats{
			Category:     row.Category,
			ProductCount: row.ProductCount,
			BrandCount:   row.BrandCount,
			ScanCount:    scanCounts[row.Category],
		})
	}
	return out, nil
}

func (s *service) BrandStats(ctx context.Context, limit int) ([]BrandStats, error) {
	rows, err := s.repo.BrandTotals(ctx, clampLimit(limit, defaultBrandLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load brand totals")
	}
	out := make([]BrandStats, 0, len(rows))
	for _, row := range rows {
		stat := BrandStats{
			Brand:         row.Brand,
			ProductCount:  row.ProductCount,
			CategoryCount: row.CategoryCount,
		}
		if row.AvgMRP != nil {
			rounded := math.Round(*row.AvgMRP*100) / 100
			stat.AvgMRP = &rounded
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *service) Trends(ctx context.Context, req types.TrendQueryRequest) (*types.TrendQueryResponse, error) {
	if s.trends == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trend analytics not configured")
	}
	resp, err := s.trends.Query(ctx, req)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		s.logg.Error(ctx, "trend query failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query trends")
	}
	return resp, nil
}

// dayStart parses a YYYY-MM-DD date in the service location; blank means today.
func (s *service) dayStart(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		now := s.now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").
			WithDetails(map[string]any{"date": value})
	}
	return day, nil
}

// window turns an inclusive date range into [start, end+1d). Either end may be blank.
func (s *service) window(input RangeInput) (Window, error) {
	var w Window
	if strings.TrimSpace(input.StartDate) != "" {
		start, err := s.dayStart(input.StartDate)
		if err != nil {
			return Window{}, err
		}
		w.From = &start
	}
	if strings.TrimSpace(input.EndDate) != "" {
		end, err := s.dayStart(input.EndDate)
		if err != nil {
			return Window{}, err
		}
		end = end.AddDate(0, 0, 1)
		w.To = &end
	}
	if w.From != nil && w.To != nil && !w.To.After(*w.From) {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	return w, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxReportLimit {
		return maxReportLimit
	}
	return limit
}

func percent(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func average(sum, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return int64(math.Round(float64(sum) / float64(count)))
}

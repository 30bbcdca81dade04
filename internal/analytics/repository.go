package analytics

import (
	"context"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"gorm.io/gorm"
)

// Window bounds a report to [From, To); nil ends are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

type statusTotals struct {
	Status      enums.PickListStatus
	Count       int64
	TotalItems  int64
	PickedItems int64
	ErrorCount  int64
}

type resultTotals struct {
	ScanResult    enums.ScanResult
	Count         int64
	ResponseSum   int64
	ResponseCount int64
}

type branchTotals struct {
	Branch             string
	TotalPickLists     int64
	CompletedPickLists int64
	TotalItems         int64
	PickedItems        int64
	ErrorCount         int64
}

type productTotals struct {
	ProductCode   string
	TotalScans    int64
	ResponseSum   int64
	ResponseCount int64
}

type categoryTotals struct {
	Category     string
	ProductCount int64
	BrandCount   int64
}

type categoryScans struct {
	Category  string
	ScanCount int64
}

type brandTotals struct {
	Brand         string
	ProductCount  int64
	CategoryCount int64
	AvgMRP        *float64
}

// Repository runs the reporting aggregates over pick_lists, scan_logs and products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func applyWindow(query *gorm.DB, w Window) *gorm.DB {
	if w.From != nil {
		query = query.Where("created_at >= ?", w.From.UTC())
	}
	if w.To != nil {
		query = query.Where("created_at < ?", w.To.UTC())
	}
	return query
}

// PickListTotals groups pick lists in the window by status.
func (r *Repository) PickListTotals(ctx context.Context, branch string, w Window) ([]statusTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PickList{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_items), 0) AS total_items, " +
			"COALESCE(SUM(picked_items), 0) AS picked_items, COALESCE(SUM(error_count), 0) AS error_count")
	if branch != "" {
		query = query.Where("branch = ?", branch)
	}
	var rows []statusTotals
	if err := applyWindow(query, w).Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ScanResultTotals groups scan logs in the window by result. mismatchOnly keeps is_match = false rows.
func (r *Repository) ScanResultTotals(ctx context.Context, branch string, w Window, mismatchOnly bool) ([]resultTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ScanLog{}).
		Select("scan_result, COUNT(*) AS count, COALESCE(SUM(response_time_ms), 0) AS response_sum, " +
			"COUNT(response_time_ms) AS response_count")
	if branch != "" {
		query = query.Where("branch = ?", branch)
	}
	if mismatchOnly {
		query = query.Where("is_match = ?", false)
	}
	var rows []resultTotals
	err := applyWindow(query, w).
		Group("scan_result").
		Order("count DESC").
		Order("scan_result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BranchTotals groups pick lists in the window by branch, busiest first.
func (r *Repository) BranchTotals(ctx context.Context, w Window) ([]branchTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PickList{}).
		Select("branch, COUNT(*) AS total_pick_lists, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_pick_lists, "+
			"COALESCE(SUM(total_items), 0) AS total_items, COALESCE(SUM(picked_items), 0) AS picked_items, "+
			"COALESCE(SUM(error_count), 0) AS error_count", enums.PickListStatusCompleted)
	var rows []branchTotals
	err := applyWindow(query, w).
		Group("branch").
		Order("total_pick_lists DESC").
		Order("branch").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopProducts counts matched scans per product, most scanned first.
func (r *Repository) TopProducts(ctx context.Context, w Window, limit int) ([]productTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ScanLog{}).
		Select("product_code, COUNT(*) AS total_scans, COALESCE(SUM(response_time_ms), 0) AS response_sum, "+
			"COUNT(response_time_ms) AS response_count").
		Where("is_match = ? AND product_code IS NOT NULL", true)
	var rows []productTotals
	err := applyWindow(query, w).
		Group("product_code").
		Order("total_scans DESC").
		Order("product_code").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PickListsSince returns pick lists created at or after since, oldest first.
func (r *Repository) PickListsSince(ctx context.Context, branch string, since time.Time) ([]models.PickList, error) {
	query := r.db.WithContext(ctx).
		Select("id", "branch", "total_items", "picked_items", "error_count", "status", "created_at").
		Where("created_at >= ?", since.UTC())
	if branch != "" {
		query = query.Where("branch = ?", branch)
	}
	var rows []models.PickList
	if err := query.Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CategoryTotals counts active products and distinct brands per category.
func (r *Repository) CategoryTotals(ctx context.Context) ([]categoryTotals, error) {
	var rows []categoryTotals
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("COALESCE(category, '') AS category, COUNT(*) AS product_count, COUNT(DISTINCT brand) AS brand_count").
		Where("is_active = ?", true).
		Group("COALESCE(category, '')").
		Order("product_count DESC").
		Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CategoryScans counts matched scans per product category.
func (r *Repository) CategoryScans(ctx context.Context) ([]categoryScans, error) {
	var rows []categoryScans
	err := r.db.WithContext(ctx).
		Table("scan_logs AS s").
		Select("COALESCE(p.category, '') AS category, COUNT(*) AS scan_count").
		Joins("LEFT JOIN products AS p ON p.product_code = s.product_code").
		Where("s.is_match = ?", true).
		Group("COALESCE(p.category, '')").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BrandTotals summarizes active products per non-empty brand.
func (r *Repository) BrandTotals(ctx context.Context, limit int) ([]brandTotals, error) {
	var rows []brandTotals
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("brand, COUNT(*) AS product_count, COUNT(DISTINCT category) AS category_count, CAST(AVG(mrp) AS DOUBLE PRECISION) AS avg_mrp").
		Where("is_active = ? AND brand IS NOT NULL AND brand <> ''", true).
		Group("brand").
		Order("product_count DESC").
		Order("brand").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Package scanlogs persists the append-only record of scan attempts.
package scanlogs

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter narrows scan log reads.
type Filter struct {
	PickListID *uuid.UUID
	Branch     string
	Result     enums.ScanResult
	Since      *time.Time
	Limit      int
}

// Repository offers insert and read access only; rows are never updated.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert appends a scan log row.
func (r *Repository) Insert(ctx context.Context, entry *models.ScanLog) error {
	if entry == nil {
		return errors.New("scan log required")
	}
	if !entry.ScanResult.IsValid() {
		return errors.New("scan log result invalid")
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID loads one scan log.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScanLog, error) {
	var entry models.ScanLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns scan logs newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.ScanLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ScanLog{})
	if filter.PickListID != nil {
		query = query.Where("pick_list_id = ?", *filter.PickListID)
	}
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	if filter.Result != "" {
		query = query.Where("scan_result = ?", filter.Result)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []models.ScanLog
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByPickList counts scan rows per result for one pick list.
func (r *Repository) CountByPickList(ctx context.Context, pickListID uuid.UUID) (map[enums.ScanResult]int64, error) {
	type row struct {
		ScanResult enums.ScanResult
		Count      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ScanLog{}).
		Select("scan_result, COUNT(*) AS count").
		Where("pick_list_id = ?", pickListID).
		Group("scan_result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ScanResult]int64, len(rows))
	for _, r := range rows {
		out[r.ScanResult] = r.Count
	}
	return out, nil
}

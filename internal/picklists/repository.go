package picklists

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows pick-list listing.
type ListFilter struct {
	Branch string
	Status enums.PickListStatus
	From   *time.Time
	To     *time.Time
	Cursor *pagination.Cursor
	Limit  int
}

// Repository persists pick lists and their items.
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

// Create inserts the pick list and then its items.
func (r *Repository) Create(ctx context.Context, list *models.PickList) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(list).Error; err != nil {
		return err
	}
	if len(list.Items) == 0 {
		return nil
	}
	for i := range list.Items {
		list.Items[i].PickListID = list.ID
	}
	return r.db.WithContext(ctx).Create(&list.Items).Error
}

// FindByReference loads a pick list by uuid or by its PL code (case-insensitive).
// forUpdate takes a row lock on Postgres. A miss is (nil, nil).
func (r *Repository) FindByReference(ctx context.Context, ref string, forUpdate bool) (*models.PickList, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("pick_list_code = ?", strings.ToUpper(ref))
	}

	var list models.PickList
	if err := query.First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

// LoadItems returns the items of a pick list in walk order.
func (r *Repository) LoadItems(ctx context.Context, pickListID uuid.UUID) ([]models.PickListItem, error) {
	var items []models.PickListItem
	err := r.db.WithContext(ctx).
		Where("pick_list_id = ?", pickListID).
		Order("position").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItemQty writes a new picked quantity only if the row still holds expectedPicked.
func (r *Repository) UpdateItemQty(ctx context.Context, item *models.PickListItem, expectedPicked int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PickListItem{}).
		Where("id = ? AND picked_qty = ?", item.ID, expectedPicked).
		Updates(map[string]any{
			"picked_qty":  item.PickedQty,
			"item_status": item.ItemStatus,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateListState writes the derived list fields only if the row still holds
// expectedVersion, then bumps the version.
func (r *Repository) UpdateListState(ctx context.Context, list *models.PickList, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PickList{}).
		Where("id = ? AND version = ?", list.ID, expectedVersion).
		Updates(map[string]any{
			"total_items":  list.TotalItems,
			"picked_items": list.PickedItems,
			"status":       list.Status,
			"started_at":   list.StartedAt,
			"completed_at": list.CompletedAt,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	list.Version = expectedVersion + 1
	return true, nil
}

// IncrementErrorCount bumps error_count in place.
func (r *Repository) IncrementErrorCount(ctx context.Context, pickListID uuid.UUID) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PickList{}).
		Where("id = ?", pickListID).
		Updates(map[string]any{
			"error_count": gorm.Expr("error_count + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var count int
	if err := r.db.WithContext(ctx).
		Model(&models.PickList{}).
		Where("id = ?", pickListID).
		Pluck("error_count", &count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List returns pick lists newest first, keyed by (created_at, id) for cursors.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.PickList, error) {
	query := r.db.WithContext(ctx).Model(&models.PickList{})
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var rows []models.PickList
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStalePending returns PENDING lists created before cutoff, oldest first.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PickList, error) {
	var rows []models.PickList
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.PickListStatusPending, cutoff).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

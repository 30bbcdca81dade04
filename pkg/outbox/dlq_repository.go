package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
)

const (
	maxDLQErrorLen  = 1024
	defaultDLQLimit = 50
	maxDLQListLimit = 500
)

var (
	ErrDLQEntryNotFound = errors.New("dlq entry not found")
	// ErrAlreadyPublished means the outbox row for a DLQ entry was delivered
	// after all, so replaying it would publish twice.
	ErrAlreadyPublished = errors.New("event already published")
)

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		msg := clip(*entry.ErrorMessage, maxDLQErrorLen)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// FindByEventID returns the newest entry for eventID, or nil.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("failed_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DLQFilter narrows List. A zero Reason matches every reason.
type DLQFilter struct {
	Reason enums.OutboxDLQErrorReason
	Limit  int
}

// List returns the most recent failures first.
func (r *DLQRepository) List(ctx context.Context, filter DLQFilter) ([]models.OutboxDLQ, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultDLQLimit
	case limit > maxDLQListLimit:
		limit = maxDLQListLimit
	}
	query := r.db.WithContext(ctx).Model(&models.OutboxDLQ{})
	if filter.Reason != "" {
		query = query.Where("error_reason = ?", filter.Reason)
	}
	var entries []models.OutboxDLQ
	err := query.Order("failed_at DESC").Order("id ASC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Replay puts a dead-lettered event back on the queue with a fresh attempt
// budget and drops its DLQ entries. The parked outbox row is reset when it
// still exists; otherwise it is recreated from the DLQ copy.
func (r *DLQRepository) Replay(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	tx = tx.WithContext(ctx)

	var entry models.OutboxDLQ
	err := tx.Where("event_id = ?", eventID).Order("failed_at DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDLQEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dlq entry: %w", err)
	}

	var existing []models.OutboxEvent
	if err := tx.Where("id = ?", eventID).Limit(1).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load outbox event: %w", err)
	}
	event := entry.Requeued()
	switch {
	case len(existing) == 0:
		if err := tx.Create(&event).Error; err != nil {
			return nil, fmt.Errorf("recreate outbox event: %w", err)
		}
	case existing[0].Published():
		return nil, ErrAlreadyPublished
	default:
		err := tx.Model(&models.OutboxEvent{}).
			Where("id = ?", eventID).
			Updates(map[string]any{"attempt_count": 0, "last_error": nil}).Error
		if err != nil {
			return nil, fmt.Errorf("reset outbox event: %w", err)
		}
		event = existing[0]
		event.AttemptCount = 0
		event.LastError = nil
	}

	if err := tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{}).Error; err != nil {
		return nil, fmt.Errorf("delete dlq entry: %w", err)
	}
	return &event, nil
}

// DeleteFailedBefore purges DLQ rows older than cutoff.
func (r *DLQRepository) DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	res := tx.WithContext(ctx).Where("failed_at < ?", cutoff).Delete(&models.OutboxDLQ{})
	return res.RowsAffected, res.Error
}

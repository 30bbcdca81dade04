package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stn-picking/pkg/enums"
)

// PickList is the aggregate root for a batch of items to be collected.
// TotalItems and PickedItems are sums of quantities and are derived from Items.
type PickList struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PickListCode string               `gorm:"column:pick_list_code;not null;uniqueIndex:ux_pick_lists_code"`
	Branch       string               `gorm:"column:branch;not null"`
	Operator     *string              `gorm:"column:operator"`
	TotalItems   int                  `gorm:"column:total_items;not null"`
	PickedItems  int                  `gorm:"column:picked_items;not null"`
	ErrorCount   int                  `gorm:"column:error_count;not null"`
	Status       enums.PickListStatus `gorm:"column:status;type:pick_list_status;not null"`
	StartedAt    *time.Time           `gorm:"column:started_at"`
	CompletedAt  *time.Time           `gorm:"column:completed_at"`
	Version      int                  `gorm:"column:version;not null"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	Items        []PickListItem       `gorm:"foreignKey:PickListID;constraint:OnDelete:CASCADE"`
}

func (p *PickList) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PickListItem is one product line in a pick list, stored in walk order.
type PickListItem struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PickListID   uuid.UUID        `gorm:"column:pick_list_id;type:uuid;not null"`
	Position     int              `gorm:"column:position;not null"`
	ProductCode  string           `gorm:"column:product_code;not null"`
	ProductID    *uuid.UUID       `gorm:"column:product_id;type:uuid"`
	ProductName  *string          `gorm:"column:product_name"`
	Barcode      *string          `gorm:"column:barcode"`
	RackID       *string          `gorm:"column:rack_id"`
	RackSequence int              `gorm:"column:rack_sequence;not null"`
	RequiredQty  int              `gorm:"column:required_qty;not null"`
	PickedQty    int              `gorm:"column:picked_qty;not null"`
	ItemStatus   enums.ItemStatus `gorm:"column:item_status;type:item_status;not null"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *PickListItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

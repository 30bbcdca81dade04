package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rack is a physical storage location; sequence defines the walk order.
type Rack struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RackID    string    `gorm:"column:rack_id;not null;uniqueIndex:ux_racks_rack_id"`
	Zone      *string   `gorm:"column:zone"`
	Aisle     *string   `gorm:"column:aisle"`
	Level     *int      `gorm:"column:level"`
	Sequence  int       `gorm:"column:sequence;not null"`
	BranchID  *string   `gorm:"column:branch_id"`
	Capacity  int       `gorm:"column:capacity;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Rack) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

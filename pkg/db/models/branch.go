package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a warehouse location that owns pick lists.
type Branch struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID   string    `gorm:"column:branch_id;not null;uniqueIndex:ux_branches_branch_id"`
	BranchName string    `gorm:"column:branch_name;not null"`
	Address    *string   `gorm:"column:address"`
	City       *string   `gorm:"column:city"`
	State      *string   `gorm:"column:state"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (b *Branch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stn-picking/pkg/enums"
)

// GeneratedBarcode is a code minted for a product that lacks a usable physical barcode.
type GeneratedBarcode struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GeneratedCode string            `gorm:"column:generated_code;not null;uniqueIndex:ux_generated_barcodes_code"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	ProductCode   string            `gorm:"column:product_code;not null"`
	BarcodeType   enums.BarcodeType `gorm:"column:barcode_type;type:barcode_type;not null"`
	PrintedAt     *time.Time        `gorm:"column:printed_at"`
	PrintCount    int               `gorm:"column:print_count;not null"`
	IsActive      bool              `gorm:"column:is_active;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	Product       *Product          `gorm:"foreignKey:ProductID"`
}

func (g *GeneratedBarcode) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

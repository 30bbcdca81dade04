package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry that scans resolve to.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductCode        string           `gorm:"column:product_code;not null;uniqueIndex:ux_products_product_code"`
	ProductName        string           `gorm:"column:product_name;not null"`
	Variant            *string          `gorm:"column:variant"`
	Barcode            *string          `gorm:"column:barcode"`
	OriginalBarcode    *string          `gorm:"column:original_barcode"`
	HasPhysicalBarcode bool             `gorm:"column:has_physical_barcode;not null"`
	RackID             *string          `gorm:"column:rack_id"`
	RackSequence       *int             `gorm:"column:rack_sequence"`
	Category           *string          `gorm:"column:category"`
	Brand              *string          `gorm:"column:brand"`
	BrandForm          *string          `gorm:"column:brand_form"`
	MRP                *decimal.Decimal `gorm:"column:mrp;type:numeric(12,2)"`
	SLP                *decimal.Decimal `gorm:"column:slp;type:numeric(12,2)"`
	RLP                *decimal.Decimal `gorm:"column:rlp;type:numeric(12,2)"`
	UPC                *string          `gorm:"column:upc"`
	Units              *int             `gorm:"column:units"`
	IsActive           bool             `gorm:"column:is_active;not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BarcodeValue returns the physical or assigned barcode, or "" when unset.
func (p *Product) BarcodeValue() string {
	if p == nil || p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// RackSequenceValue returns the rack sequence or 0 when unset.
func (p *Product) RackSequenceValue() int {
	if p == nil || p.RackSequence == nil {
		return 0
	}
	return *p.RackSequence
}

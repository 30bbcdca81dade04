package catalog

import (
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog product payload.
type ProductDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductCode        string           `json:"productCode"`
	ProductName        string           `json:"productName"`
	Variant            *string          `json:"variant,omitempty"`
	Barcode            *string          `json:"barcode,omitempty"`
	OriginalBarcode    *string          `json:"originalBarcode,omitempty"`
	HasPhysicalBarcode bool             `json:"hasPhysicalBarcode"`
	RackID             *string          `json:"rackId,omitempty"`
	RackSequence       *int             `json:"rackSequence,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	BrandForm          *string          `json:"brandForm,omitempty"`
	MRP                *decimal.Decimal `json:"mrp,omitempty"`
	SLP                *decimal.Decimal `json:"slp,omitempty"`
	RLP                *decimal.Decimal `json:"rlp,omitempty"`
	UPC                *string          `json:"upc,omitempty"`
	Units              *int             `json:"units,omitempty"`
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// ProductList is one page of catalog products.
type ProductList struct {
	Products   []ProductDTO        `json:"products"`
	Pagination pagination.PageInfo `json:"pagination"`
}

// GeneratedBarcodeDTO exposes a minted code.
type GeneratedBarcodeDTO struct {
	ID            uuid.UUID  `json:"id"`
	GeneratedCode string     `json:"generatedCode"`
	ProductCode   string     `json:"productCode"`
	BarcodeType   string     `json:"barcodeType"`
	PrintedAt     *time.Time `json:"printedAt,omitempty"`
	PrintCount    int        `json:"printCount"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// GenerateResult is returned after minting a code.
type GenerateResult struct {
	GeneratedCode string `json:"generatedCode"`
	ProductCode   string `json:"productCode"`
	ProductName   string `json:"productName"`
	BarcodeType   string `json:"barcodeType"`
}

// BranchDTO exposes a warehouse branch.
type BranchDTO struct {
	ID         uuid.UUID `json:"id"`
	BranchID   string    `json:"branchId"`
	BranchName string    `json:"branchName"`
	Address    *string   `json:"address,omitempty"`
	City       *string   `json:"city,omitempty"`
	State      *string   `json:"state,omitempty"`
	IsActive   bool      `json:"isActive"`
}

// RackDTO exposes a storage rack.
type RackDTO struct {
	ID       uuid.UUID `json:"id"`
	RackID   string    `json:"rackId"`
	Zone     *string   `json:"zone,omitempty"`
	Aisle    *string   `json:"aisle,omitempty"`
	Level    *int      `json:"level,omitempty"`
	Sequence int       `json:"sequence"`
	BranchID *string   `json:"branchId,omitempty"`
	Capacity int       `json:"capacity"`
	IsActive bool      `json:"isActive"`
}

// NewProductDTO maps a product row to its payload.
func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		ProductCode:        p.ProductCode,
		ProductName:        p.ProductName,
		Variant:            p.Variant,
		Barcode:            p.Barcode,
		OriginalBarcode:    p.OriginalBarcode,
		HasPhysicalBarcode: p.HasPhysicalBarcode,
		RackID:             p.RackID,
		RackSequence:       p.RackSequence,
		Category:           p.Category,
		Brand:              p.Brand,
		BrandForm:          p.BrandForm,
		MRP:                p.MRP,
		SLP:                p.SLP,
		RLP:                p.RLP,
		UPC:                p.UPC,
		Units:              p.Units,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out
}

func newGeneratedBarcodeDTO(g *models.GeneratedBarcode) GeneratedBarcodeDTO {
	return GeneratedBarcodeDTO{
		ID:            g.ID,
		GeneratedCode: g.GeneratedCode,
		ProductCode:   g.ProductCode,
		BarcodeType:   string(g.BarcodeType),
		PrintedAt:     g.PrintedAt,
		PrintCount:    g.PrintCount,
		IsActive:      g.IsActive,
		CreatedAt:     g.CreatedAt,
	}
}

func newBranchDTO(b *models.Branch) BranchDTO {
	return BranchDTO{
		ID:         b.ID,
		BranchID:   b.BranchID,
		BranchName: b.BranchName,
		Address:    b.Address,
		City:       b.City,
		State:      b.State,
		IsActive:   b.IsActive,
	}
}

func newRackDTO(r *models.Rack) RackDTO {
	return RackDTO{
		ID:       r.ID,
		RackID:   r.RackID,
		Zone:     r.Zone,
		Aisle:    r.Aisle,
		Level:    r.Level,
		Sequence: r.Sequence,
		BranchID: r.BranchID,
		Capacity: r.Capacity,
		IsActive: r.IsActive,
	}
}

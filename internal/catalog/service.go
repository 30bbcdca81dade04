package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgDuplicateProduct = "Product code or barcode already exists"
	generatedCodeMaxLen = 30
)

// Service exposes catalog management and lookups.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	ListCategories(ctx context.Context) ([]string, error)
	LookupBarcode(ctx context.Context, code string) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)

	GenerateBarcode(ctx context.Context, productCode string, barcodeType enums.BarcodeType) (*GenerateResult, error)
	ListUnassigned(ctx context.Context) ([]ProductDTO, error)
	ListProductBarcodes(ctx context.Context, productCode string) ([]GeneratedBarcodeDTO, error)
	MarkPrinted(ctx context.Context, code string) (*GeneratedBarcodeDTO, error)

	ListBranches(ctx context.Context) ([]BranchDTO, error)
	CreateBranch(ctx context.Context, input BranchInput) (*BranchDTO, error)
	ListRacks(ctx context.Context, branchID string) ([]RackDTO, error)
	CreateRack(ctx context.Context, input RackInput) (*RackDTO, error)

	ImportProducts(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportStats, error)
}

// ListProductsInput carries the browse filters.
type ListProductsInput struct {
	Category   string
	RackID     string
	Search     string
	HasBarcode *bool
	Page       pagination.Page
}

// ProductInput holds the validated payload to create a product.
type ProductInput struct {
	ProductCode        string
	ProductName        string
	Variant            *string
	Barcode            *string
	OriginalBarcode    *string
	HasPhysicalBarcode bool
	RackID             *string
	RackSequence       *int
	Category           *string
	Brand              *string
	BrandForm          *string
	MRP                *decimal.Decimal
	SLP                *decimal.Decimal
	RLP                *decimal.Decimal
	UPC                *string
	Units              *int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	ProductName        *string
	Variant            *string
	Barcode            *string
	OriginalBarcode    *string
	HasPhysicalBarcode *bool
	RackID             *string
	RackSequence       *int
	Category           *string
	Brand              *string
	BrandForm          *string
	MRP                *decimal.Decimal
	SLP                *decimal.Decimal
	RLP                *decimal.Decimal
	UPC                *string
	Units              *int
	IsActive           *bool
}

// BranchInput creates a branch.
type BranchInput struct {
	BranchID   string
	BranchName string
	Address    *string
	City       *string
	State      *string
}

// RackInput creates a rack.
type RackInput struct {
	RackID   string
	Zone     *string
	Aisle    *string
	Level    *int
	Sequence int
	BranchID *string
	Capacity *int
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg, now: time.Now}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	page := input.Page.Normalize()
	rows, total, err := s.repo.ListProducts(ctx, ProductFilter{
		Category:   strings.TrimSpace(input.Category),
		RackID:     strings.TrimSpace(input.RackID),
		Search:     input.Search,
		HasBarcode: input.HasBarcode,
		Offset:     page.Offset(),
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &ProductList{Products: newProductDTOs(rows), Pagination: page.Info(total)}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

// LookupBarcode checks the physical barcode, then active generated codes, then UPC.
func (s *service) LookupBarcode(ctx context.Context, code string) (*ProductDTO, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	product, err := s.repo.FindActiveByBarcode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup barcode")
	}
	if product == nil {
		gb, err := s.repo.FindActiveGeneratedBarcode(ctx, strings.ToUpper(code))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup generated barcode")
		}
		if gb != nil && gb.Product != nil && gb.Product.IsActive {
			product = gb.Product
		}
	}
	if product == nil {
		product, err = s.repo.FindActiveByUPC(ctx, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup upc")
		}
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found for barcode")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.ProductCode))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productCode is required")
	}
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productName is required")
	}

	product := &models.Product{
		ProductCode:        code,
		ProductName:        name,
		Variant:            input.Variant,
		Barcode:            normalizeOptional(input.Barcode),
		OriginalBarcode:    normalizeOptional(input.OriginalBarcode),
		HasPhysicalBarcode: input.HasPhysicalBarcode,
		RackID:             upperOptional(input.RackID),
		RackSequence:       input.RackSequence,
		Category:           normalizeOptional(input.Category),
		Brand:              input.Brand,
		BrandForm:          input.BrandForm,
		MRP:                input.MRP,
		SLP:                input.SLP,
		RLP:                input.RLP,
		UPC:                normalizeOptional(input.UPC),
		Units:              input.Units,
		IsActive:           true,
	}
	if err := s.ensureBarcodeAvailable(ctx, product.Barcode, uuid.Nil); err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgDuplicateProduct)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if input.ProductName != nil {
		name := strings.TrimSpace(*input.ProductName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "productName cannot be empty")
		}
		product.ProductName = name
	}
	if input.Barcode != nil {
		product.Barcode = normalizeOptional(input.Barcode)
		if err := s.ensureBarcodeAvailable(ctx, product.Barcode, product.ID); err != nil {
			return nil, err
		}
	}
	if input.Variant != nil {
		product.Variant = input.Variant
	}
	if input.OriginalBarcode != nil {
		product.OriginalBarcode = normalizeOptional(input.OriginalBarcode)
	}
	if input.HasPhysicalBarcode != nil {
		product.HasPhysicalBarcode = *input.HasPhysicalBarcode
	}
	if input.RackID != nil {
		product.RackID = upperOptional(input.RackID)
	}
	if input.RackSequence != nil {
		product.RackSequence = input.RackSequence
	}
	if input.Category != nil {
		product.Category = normalizeOptional(input.Category)
	}
	if input.Brand != nil {
		product.Brand = input.Brand
	}
	if input.BrandForm != nil {
		product.BrandForm = input.BrandForm
	}
	if input.MRP != nil {
		product.MRP = input.MRP
	}
	if input.SLP != nil {
		product.SLP = input.SLP
	}
	if input.RLP != nil {
		product.RLP = input.RLP
	}
	if input.UPC != nil {
		product.UPC = normalizeOptional(input.UPC)
	}
	if input.Units != nil {
		product.Units = input.Units
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgDuplicateProduct)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// ensureBarcodeAvailable rejects a barcode equal to another product's active generated code.
func (s *service) ensureBarcodeAvailable(ctx context.Context, barcode *string, owner uuid.UUID) error {
	if barcode == nil {
		return nil
	}
	holder, err := s.repo.ActiveGeneratedOwner(ctx, *barcode)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check generated barcodes")
	}
	if holder != nil && *holder != owner {
		return pkgerrors.New(pkgerrors.CodeConflict, "Barcode already assigned as a generated code").
			WithDetails(map[string]any{"barcode": *barcode})
	}
	return nil
}

// GenerateBarcode mints a code for the product and assigns it when the product
// has no physical barcode. Both writes share one transaction.
func (s *service) GenerateBarcode(ctx context.Context, productCode string, barcodeType enums.BarcodeType) (*GenerateResult, error) {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productCode is required")
	}
	if barcodeType == "" {
		barcodeType = enums.BarcodeTypeQR
	}
	if !barcodeType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid barcodeType %q", barcodeType)
	}

	var result *GenerateResult
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByProductCode(ctx, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}

		gb := &models.GeneratedBarcode{
			GeneratedCode: s.mintCode(product.ProductCode),
			ProductID:     product.ID,
			ProductCode:   product.ProductCode,
			BarcodeType:   barcodeType,
			IsActive:      true,
		}
		if err := repo.CreateGeneratedBarcode(ctx, gb); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "generated code collision, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert generated barcode")
		}
		if !product.HasPhysicalBarcode {
			if err := repo.AssignBarcode(ctx, product.ID, gb.GeneratedCode); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgDuplicateProduct)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign barcode")
			}
		}

		result = &GenerateResult{
			GeneratedCode: gb.GeneratedCode,
			ProductCode:   product.ProductCode,
			ProductName:   product.ProductName,
			BarcodeType:   string(gb.BarcodeType),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"product_code": result.ProductCode, "generated_code": result.GeneratedCode})
	s.logg.Info(ctx, "barcode generated")
	return result, nil
}

// mintCode builds GEN-<CODE>-<base36 ms>-<uuid group>, capped at 30 characters.
func (s *service) mintCode(productCode string) string {
	ms := strconv.FormatInt(s.now().UnixMilli(), 36)
	entropy := strings.SplitN(uuid.NewString(), "-", 2)[0]
	code := strings.ToUpper(fmt.Sprintf("GEN-%s-%s-%s", productCode, ms, entropy))
	if len(code) > generatedCodeMaxLen {
		code = code[:generatedCodeMaxLen]
	}
	return code
}

func (s *service) ListUnassigned(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListUnassigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list unassigned products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) ListProductBarcodes(ctx context.Context, productCode string) ([]GeneratedBarcodeDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	product, err := s.repo.FindActiveByProductCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	rows, err := s.repo.ListGeneratedForProduct(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list generated barcodes")
	}
	out := make([]GeneratedBarcodeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newGeneratedBarcodeDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) MarkPrinted(ctx context.Context, code string) (*GeneratedBarcodeDTO, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	gb, err := s.repo.MarkPrinted(ctx, code, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Barcode not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark barcode printed")
	}
	dto := newGeneratedBarcodeDTO(gb)
	return &dto, nil
}

func (s *service) ListBranches(ctx context.Context) ([]BranchDTO, error) {
	rows, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list branches")
	}
	out := make([]BranchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newBranchDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateBranch(ctx context.Context, input BranchInput) (*BranchDTO, error) {
	branchID := strings.TrimSpace(input.BranchID)
	name := strings.TrimSpace(input.BranchName)
	if branchID == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branchId and branchName are required")
	}
	branch := &models.Branch{
		BranchID:   branchID,
		BranchName: name,
		Address:    input.Address,
		City:       input.City,
		State:      input.State,
		IsActive:   true,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Branch already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create branch")
	}
	dto := newBranchDTO(branch)
	return &dto, nil
}

func (s *service) ListRacks(ctx context.Context, branchID string) ([]RackDTO, error) {
	rows, err := s.repo.ListRacks(ctx, strings.TrimSpace(branchID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list racks")
	}
	out := make([]RackDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newRackDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateRack(ctx context.Context, input RackInput) (*RackDTO, error) {
	rackID := strings.ToUpper(strings.TrimSpace(input.RackID))
	if rackID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rackId is required")
	}
	capacity := 100
	if input.Capacity != nil {
		if *input.Capacity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
		}
		capacity = *input.Capacity
	}
	rack := &models.Rack{
		RackID:   rackID,
		Zone:     input.Zone,
		Aisle:    input.Aisle,
		Level:    input.Level,
		Sequence: input.Sequence,
		BranchID: normalizeOptional(input.BranchID),
		Capacity: capacity,
		IsActive: true,
	}
	if err := s.repo.CreateRack(ctx, rack); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Rack already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rack")
	}
	dto := newRackDTO(rack)
	return &dto, nil
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func upperOptional(v *string) *string {
	n := normalizeOptional(v)
	if n == nil {
		return nil
	}
	upper := strings.ToUpper(*n)
	return &upper
}

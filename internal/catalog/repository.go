package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows the catalog listing.
type ProductFilter struct {
	Category   string
	RackID     string
	Search     string
	HasBarcode *bool
	Offset     int
	Limit      int
}

// Repository wires together catalog persistence helpers.
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

// first loads one product matching the condition; a miss is (nil, nil).
func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where(query, args...).Order("product_code").First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByBarcode matches the barcode column exactly.
func (r *Repository) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "barcode = ?", code)
}

// FindByProductCode matches the product code exactly.
func (r *Repository) FindByProductCode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "product_code = ?", code)
}

// FindByBarcodePrefix returns the product whose barcode is the longest
// case-insensitive prefix of code.
func (r *Repository) FindByBarcodePrefix(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("barcode IS NOT NULL AND barcode <> ''").
		Where("substr(lower(?), 1, length(barcode)) = lower(barcode)", code).
		Order("length(barcode) DESC").
		Order("product_code").
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByOriginalBarcode matches original_barcode exactly.
func (r *Repository) FindByOriginalBarcode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "original_barcode = ?", code)
}

// FindByUPC matches upc exactly.
func (r *Repository) FindByUPC(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "upc = ?", code)
}

// FindActiveGeneratedBarcode loads an active generated code with its product.
func (r *Repository) FindActiveGeneratedBarcode(ctx context.Context, code string) (*models.GeneratedBarcode, error) {
	var gb models.GeneratedBarcode
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("generated_code = ? AND is_active = ?", code, true).
		First(&gb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gb, nil
}

// FindActiveByBarcode is the catalog lookup used by the barcode endpoint.
func (r *Repository) FindActiveByBarcode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "barcode = ? AND is_active = ?", code, true)
}

// FindActiveByUPC matches upc on active products.
func (r *Repository) FindActiveByUPC(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "upc = ? AND is_active = ?", code, true)
}

// FindActiveByProductCode returns an active product by its code.
func (r *Repository) FindActiveByProductCode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(ctx, "product_code = ? AND is_active = ?", code, true)
}

// FindProductsByCodes loads products keyed by product code.
func (r *Repository) FindProductsByCodes(ctx context.Context, codes []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("product_code IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ProductCode] = p
	}
	return out, nil
}

// GetProduct loads a product by id.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one page of active products plus the total match count.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.RackID != "" {
		query = query.Where("rack_id = ?", filter.RackID)
	}
	if filter.HasBarcode != nil {
		query = query.Where("has_physical_barcode = ?", *filter.HasBarcode)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"(lower(coalesce(barcode,'')) LIKE ? OR lower(product_code) LIKE ? OR lower(product_name) LIKE ? OR lower(coalesce(upc,'')) LIKE ?)",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := query.Session(&gorm.Session{}).
		Order("rack_id").
		Order("rack_sequence").
		Order("product_code").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListCategories returns distinct non-empty categories of active products.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ? AND category IS NOT NULL AND category <> ''", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ListUnassigned returns active products with neither a physical nor an assigned barcode.
func (r *Repository) ListUnassigned(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND has_physical_barcode = ?", true, false).
		Where("(barcode IS NULL OR barcode = '')").
		Order("rack_id").
		Order("rack_sequence").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves every column of an existing product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// AssignBarcode sets the barcode of a product.
func (r *Repository) AssignBarcode(ctx context.Context, productID uuid.UUID, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"barcode": code, "updated_at": time.Now().UTC()}).Error
}

// ActiveGeneratedOwner returns the product id owning an active generated code, or nil.
func (r *Repository) ActiveGeneratedOwner(ctx context.Context, code string) (*uuid.UUID, error) {
	var gb models.GeneratedBarcode
	err := r.db.WithContext(ctx).
		Select("product_id").
		Where("generated_code = ? AND is_active = ?", strings.ToUpper(code), true).
		First(&gb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gb.ProductID, nil
}

// UpsertProducts inserts rows or refreshes the catalog fields of existing codes.
func (r *Repository) UpsertProducts(ctx context.Context, rows []models.Product) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_name", "variant", "barcode", "original_barcode", "has_physical_barcode",
				"category", "brand", "brand_form", "mrp", "slp", "rlp", "upc", "units",
				"is_active", "updated_at",
			}),
		}).
		CreateInBatches(&rows, 200).Error
}

// DeactivateAllProducts soft-clears the catalog.
func (r *Repository) DeactivateAllProducts(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// CreateGeneratedBarcode inserts a minted code.
func (r *Repository) CreateGeneratedBarcode(ctx context.Context, gb *models.GeneratedBarcode) error {
	return r.db.WithContext(ctx).Create(gb).Error
}

// ListGeneratedForProduct returns active generated codes for a product, newest first.
func (r *Repository) ListGeneratedForProduct(ctx context.Context, productCode string) ([]models.GeneratedBarcode, error) {
	var rows []models.GeneratedBarcode
	err := r.db.WithContext(ctx).
		Where("product_code = ? AND is_active = ?", productCode, true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPrinted stamps printed_at and bumps print_count atomically.
func (r *Repository) MarkPrinted(ctx context.Context, code string, at time.Time) (*models.GeneratedBarcode, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GeneratedBarcode{}).
		Where("generated_code = ?", code).
		Updates(map[string]any{
			"printed_at":  at,
			"print_count": gorm.Expr("print_count + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var gb models.GeneratedBarcode
	if err := r.db.WithContext(ctx).First(&gb, "generated_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &gb, nil
}

// ListBranches returns active branches ordered by name.
func (r *Repository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var rows []models.Branch
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("branch_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateBranch inserts a branch.
func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

// ListRacks returns active racks in walk order.
func (r *Repository) ListRacks(ctx context.Context, branchID string) ([]models.Rack, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	var rows []models.Rack
	if err := query.Order("sequence").Order("rack_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateRack inserts a rack.
func (r *Repository) CreateRack(ctx context.Context, rack *models.Rack) error {
	return r.db.WithContext(ctx).Create(rack).Error
}

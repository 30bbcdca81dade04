package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
)

// Strategy names reported in Resolution.Strategy.
const (
	StrategyBarcode         = "barcode"
	StrategyProductCode     = "product_code"
	StrategyBarcodePrefix   = "barcode_prefix"
	StrategyOriginalBarcode = "original_barcode"
	StrategyGeneratedCode   = "generated_code"
	StrategyUPC             = "upc"
)

// MsgProductNotFound is returned when no strategy matches a scanned code.
const MsgProductNotFound = "Product not found for scanned barcode"

// LookupFunc finds a product for a trimmed scanned code. A miss is (nil, nil).
type LookupFunc func(ctx context.Context, code string) (*models.Product, error)

// Strategy is one named step of the resolution chain.
type Strategy struct {
	Name   string
	Lookup LookupFunc
}

// Resolution is the product a scan matched and the step that matched it.
type Resolution struct {
	Product  *models.Product
	Strategy string
}

type productLookups interface {
	FindByBarcode(ctx context.Context, code string) (*models.Product, error)
	FindByProductCode(ctx context.Context, code string) (*models.Product, error)
	FindByBarcodePrefix(ctx context.Context, code string) (*models.Product, error)
	FindByOriginalBarcode(ctx context.Context, code string) (*models.Product, error)
	FindActiveGeneratedBarcode(ctx context.Context, code string) (*models.GeneratedBarcode, error)
	FindByUPC(ctx context.Context, code string) (*models.Product, error)
}

// Resolver maps arbitrary scanned codes to catalog products.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds the default chain over the catalog repository.
func NewResolver(repo productLookups) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return NewResolverWithStrategies(defaultStrategies(repo)...), nil
}

// NewResolverWithStrategies builds a resolver over an explicit chain.
func NewResolverWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: append([]Strategy(nil), strategies...)}
}

func defaultStrategies(repo productLookups) []Strategy {
	return []Strategy{
		{Name: StrategyBarcode, Lookup: repo.FindByBarcode},
		{Name: StrategyProductCode, Lookup: repo.FindByProductCode},
		{Name: StrategyBarcodePrefix, Lookup: repo.FindByBarcodePrefix},
		{Name: StrategyOriginalBarcode, Lookup: repo.FindByOriginalBarcode},
		{Name: StrategyGeneratedCode, Lookup: func(ctx context.Context, code string) (*models.Product, error) {
			gb, err := repo.FindActiveGeneratedBarcode(ctx, strings.ToUpper(code))
			if err != nil || gb == nil {
				return nil, err
			}
			return gb.Product, nil
		}},
		{Name: StrategyUPC, Lookup: repo.FindByUPC},
	}
}

// Strategies lists the chain names in evaluation order.
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name)
	}
	return names
}

// Resolve walks the chain and returns the first hit.
func (r *Resolver) Resolve(ctx context.Context, scannedCode string) (*Resolution, error) {
	code := strings.TrimSpace(scannedCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	for _, strategy := range r.strategies {
		product, err := strategy.Lookup(ctx, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("resolve by %s", strategy.Name))
		}
		if product != nil {
			return &Resolution{Product: product, Strategy: strategy.Name}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgProductNotFound)
}

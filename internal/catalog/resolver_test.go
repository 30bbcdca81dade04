package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/stn-picking/pkg/db/dbtest"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverStrategyOrder(t *testing.T) {
	resolver, err := NewResolver(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	assert.Equal(t, []string{
		StrategyBarcode,
		StrategyProductCode,
		StrategyBarcodePrefix,
		StrategyOriginalBarcode,
		StrategyGeneratedCode,
		StrategyUPC,
	}, resolver.Strategies())
}

func TestResolverResolve(t *testing.T) {
	conn := dbtest.Open(t)
	soap := mustCreateProduct(t, conn, "SOAP001", func(p *models.Product) {
		p.Barcode = strPtr("8901234567890")
		p.OriginalBarcode = strPtr("ORIG-77")
		p.UPC = strPtr("012345678905")
	})
	shampoo := mustCreateProduct(t, conn, "SHAMPOO", func(p *models.Product) {
		p.Barcode = strPtr("89012")
	})
	mustCreateGenerated(t, conn, soap, "GEN-SOAP001-ABC", true)
	mustCreateGenerated(t, conn, shampoo, "GEN-SHAMPOO-OLD", false)

	resolver, err := NewResolver(NewRepository(conn))
	require.NoError(t, err)

	cases := []struct {
		name     string
		code     string
		product  string
		strategy string
	}{
		{"exact barcode", "8901234567890", "SOAP001", StrategyBarcode},
		{"trimmed input", "  8901234567890 ", "SOAP001", StrategyBarcode},
		{"product code", "SHAMPOO", "SHAMPOO", StrategyProductCode},
		{"longest prefix wins", "8901234567890_240", "SOAP001", StrategyBarcodePrefix},
		{"short prefix", "89012999", "SHAMPOO", StrategyBarcodePrefix},
		{"original barcode", "ORIG-77", "SOAP001", StrategyOriginalBarcode},
		{"generated code upper-cased", "gen-soap001-abc", "SOAP001", StrategyGeneratedCode},
		{"upc", "012345678905", "SOAP001", StrategyUPC},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := resolver.Resolve(context.Background(), tc.code)
			require.NoError(t, err)
			require.NotNil(t, res.Product)
			assert.Equal(t, tc.product, res.Product.ProductCode)
			assert.Equal(t, tc.strategy, res.Strategy)
		})
	}

	t.Run("inactive generated code is ignored", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "GEN-SHAMPOO-OLD")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "NOPE")
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
		assert.Equal(t, MsgProductNotFound, typed.Message())
	})

	t.Run("blank code", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "   ")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestResolverStopsAtFirstHit(t *testing.T) {
	calls := []string{}
	hit := &models.Product{ProductCode: "HIT"}
	resolver := NewResolverWithStrategies(
		Strategy{Name: "first", Lookup: func(context.Context, string) (*models.Product, error) {
			calls = append(calls, "first")
			return nil, nil
		}},
		Strategy{Name: "second", Lookup: func(context.Context, string) (*models.Product, error) {
			calls = append(calls, "second")
			return hit, nil
		}},
		Strategy{Name: "third", Lookup: func(context.Context, string) (*models.Product, error) {
			calls = append(calls, "third")
			return nil, nil
		}},
	)

	res, err := resolver.Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Same(t, hit, res.Product)
	assert.Equal(t, "second", res.Strategy)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestResolverWrapsStoreErrors(t *testing.T) {
	resolver := NewResolverWithStrategies(Strategy{Name: "broken", Lookup: func(context.Context, string) (*models.Product, error) {
		return nil, errors.New("connection reset")
	}})

	_, err := resolver.Resolve(context.Background(), "X")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestNewResolverRequiresRepository(t *testing.T) {
	_, err := NewResolver(nil)
	assert.Error(t, err)
}

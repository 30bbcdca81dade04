package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterCSV = `CombiBarCode+MRP,company,category,brand,BrandForm,SBF,BarCode,UPC,MRP,SLP,RLP,Units
14987176102024_240,HUL,Soap,Lux,Lux Bar,Lux Soft Touch 100g,14987176102024,8901030000001,,210.50,220,12
14987176102024_240,HUL,Soap,Lux,Lux Bar,Duplicate row,14987176102024,,,,,
,HUL,Soap,Lux,,No code,,,,,,
8901030865278_99,HUL,Hair,Clinic,Clinic Plus,,8901030865278,,105,,,
BAD_1,HUL,Hair,Clinic,,Broken,,,abc,,,
`

func TestImportProductsParsesAndUpserts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	stats, err := svc.ImportProducts(ctx, strings.NewReader(masterCSV), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalRows)
	assert.Equal(t, 2, stats.ParsedProducts)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 1, stats.ErrorCount)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, 6, stats.Errors[0].Line)

	var lux models.Product
	require.NoError(t, conn.First(&lux, "product_code = ?", "14987176102024_240").Error)
	assert.Equal(t, "Lux Soft Touch 100g", lux.ProductName)
	assert.Equal(t, "14987176102024_240", *lux.Barcode)
	assert.Equal(t, "14987176102024", *lux.OriginalBarcode)
	assert.True(t, lux.MRP.Equal(decimal.NewFromInt(240)), "mrp falls back to code suffix")
	assert.True(t, lux.SLP.Equal(decimal.RequireFromString("210.50")))
	assert.Equal(t, 12, *lux.Units)
	assert.True(t, lux.HasPhysicalBarcode)

	var clinic models.Product
	require.NoError(t, conn.First(&clinic, "product_code = ?", "8901030865278_99").Error)
	assert.Equal(t, "Unknown Product", clinic.ProductName)
	assert.True(t, clinic.MRP.Equal(decimal.NewFromInt(105)))
	assert.Equal(t, 1, *clinic.Units)

	again, err := svc.ImportProducts(ctx, strings.NewReader(masterCSV), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 2, again.Updated)
}

func TestImportProductsClearDeactivatesExisting(t *testing.T) {
	svc, conn := newTestService(t)
	legacy := mustCreateProduct(t, conn, "LEGACY", nil)

	stats, err := svc.ImportProducts(context.Background(), strings.NewReader(masterCSV), ImportOptions{Clear: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Deactivated)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", legacy.ID).Error)
	assert.False(t, reloaded.IsActive)

	var imported models.Product
	require.NoError(t, conn.First(&imported, "product_code = ?", "8901030865278_99").Error)
	assert.True(t, imported.IsActive)
}

func TestImportProductsRejectsBadHeader(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ImportProducts(context.Background(), strings.NewReader("code,name\nA,B\n"), ImportOptions{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ImportProducts(context.Background(), strings.NewReader(""), ImportOptions{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPreviewImport(t *testing.T) {
	preview, err := PreviewImport(strings.NewReader(masterCSV))
	require.NoError(t, err)
	assert.Equal(t, "CombiBarCode+MRP", preview.Headers[0])
	assert.Equal(t, 5, preview.TotalRows)
	require.Len(t, preview.Sample, 5)
	assert.Equal(t, "Lux Soft Touch 100g", preview.Sample[0]["SBF"])
}

package catalog

import (
	"io"
	"testing"

	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/db/dbtest"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc.(*service), conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, code string, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ProductCode:        code,
		ProductName:        "Product " + code,
		HasPhysicalBarcode: true,
		IsActive:           true,
	}
	if mutate != nil {
		mutate(product)
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func mustCreateGenerated(t *testing.T, conn *gorm.DB, product *models.Product, code string, active bool) *models.GeneratedBarcode {
	t.Helper()
	gb := &models.GeneratedBarcode{
		GeneratedCode: code,
		ProductID:     product.ID,
		ProductCode:   product.ProductCode,
		BarcodeType:   enums.BarcodeTypeQR,
		IsActive:      active,
	}
	require.NoError(t, conn.Create(gb).Error)
	return gb
}

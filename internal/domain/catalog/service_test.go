// internal/domain/catalog/service_test.go
package catalog_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.Models()...))
	return db
}

func TestResolveDispatchesOnItemType(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)

	m, err := svc.CreateMaterial(&catalog.CreateMaterialRequest{
		Code: "MAT-X", Name: "Material X", Unit: "kg",
		UnitPrice: decimal.NewFromInt(10000), Stock: 25,
	})
	require.NoError(t, err)

	p, err := svc.CreateProduct(&catalog.CreateProductRequest{
		Code: "PRD-X", Name: "Product X", Unit: "pcs",
		UnitPrice: decimal.NewFromInt(30000), Stock: 8,
	})
	require.NoError(t, err)

	item, err := svc.Resolve(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, "Material X", item.Name)
	assert.Equal(t, 25, item.StockOnHand)

	item, err = svc.Resolve(catalog.ItemRef{ItemType: catalog.ItemTypeProduct, ItemID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Product X", item.Name)

	_, err = svc.Resolve(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 999})
	assert.True(t, apperror.IsKind(err, apperror.KindReferential))

	_, err = svc.Resolve(catalog.ItemRef{ItemType: "warehouse", ItemID: m.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindReferential))
}

func TestAdjustStock(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)

	m, err := svc.CreateMaterial(&catalog.CreateMaterialRequest{
		Code: "MAT-X", Name: "Material X", Unit: "kg",
		UnitPrice: decimal.NewFromInt(10000), Stock: 25,
	})
	require.NoError(t, err)
	ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.AdjustStock(tx, ref, 7)
	}))

	item, err := svc.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, 32, item.StockOnHand)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.AdjustStock(tx, catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 999}, 1)
	})
	assert.True(t, apperror.IsKind(err, apperror.KindReferential))
}

func TestCreateMaterialRejectsNegativePrice(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)

	_, err := svc.CreateMaterial(&catalog.CreateMaterialRequest{
		Code: "MAT-X", Name: "Material X", Unit: "kg",
		UnitPrice: decimal.NewFromInt(-1),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestListSuppliersSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	svc := catalog.NewService(db)

	_, err := svc.CreateSupplier(&catalog.CreateSupplierRequest{Code: "SUP-A", Name: "Active"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&catalog.Supplier{Code: "SUP-B", Name: "Dormant", IsActive: false}).Error)

	suppliers, err := svc.ListSuppliers()
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "SUP-A", suppliers[0].Code)
}

// internal/domain/receiving/service_test.go
package receiving_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"github.com/your-org/procurement-backend/internal/domain/receiving"
	"github.com/your-org/procurement-backend/internal/domain/user"
	"github.com/your-org/procurement-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	storekeeper = procurement.Actor{ID: 11, Role: user.RoleWarehouse}
	procurer    = procurement.Actor{ID: 12, Role: user.RoleProcurement}
)

type fixture struct {
	db          *gorm.DB
	svc         *receiving.Service
	purchaseSvc *purchase.Service
	material    catalog.Material
	request     procurement.ProcurementRequest
	po          purchase.PurchaseOrder
}

// newFixture walks the whole pipeline up to a confirmed purchase order
// with one line of 10 approved units.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.Models()...))

	supplier := catalog.Supplier{Code: "SUP-A", Name: "Supplier A", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)

	material := catalog.Material{Code: "MAT-X", Name: "Material X", Unit: "kg", UnitPrice: decimal.NewFromInt(10000), StockOnHand: 50}
	require.NoError(t, db.Create(&material).Error)

	approved := 10
	request := procurement.ProcurementRequest{
		TriggerType: procurement.TriggerReorderPoint,
		Status:      procurement.StatusProcessed,
		RequestedBy: storekeeper.ID,
		LineItems: []procurement.ProcurementLineItem{
			{
				ItemRef:      catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: material.ID},
				RequestedQty: 12,
				ApprovedQty:  &approved,
				UnitPrice:    decimal.NewFromInt(10000),
				SupplierID:   &supplier.ID,
			},
		},
	}
	require.NoError(t, db.Create(&request).Error)

	catalogSvc := catalog.NewService(db)
	purchaseSvc := purchase.NewService(db, catalogSvc)
	procurementSvc := procurement.NewService(db, catalogSvc)

	orders, err := purchaseSvc.GenerateFromRequest(request.ID, procurer)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = purchaseSvc.Send(orders[0].ID, procurer)
	require.NoError(t, err)
	po, err := purchaseSvc.Confirm(orders[0].ID, procurer)
	require.NoError(t, err)

	return &fixture{
		db:          db,
		svc:         receiving.NewService(db, catalogSvc, procurementSvc, purchaseSvc),
		purchaseSvc: purchaseSvc,
		material:    material,
		request:     request,
		po:          *po,
	}
}

func (f *fixture) poLineID(t *testing.T) uint {
	t.Helper()
	var line purchase.PurchaseOrderLineItem
	require.NoError(t, f.db.Where("purchase_order_id = ?", f.po.ID).First(&line).Error)
	return line.ID
}

func (f *fixture) stockOnHand(t *testing.T) int {
	t.Helper()
	var m catalog.Material
	require.NoError(t, f.db.First(&m, f.material.ID).Error)
	return m.StockOnHand
}

func TestPostReceiptPartialThenComplete(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	receipt, err := f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                4,
	}, storekeeper)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.IdempotencyKey)
	assert.Equal(t, storekeeper.ID, receipt.ReceivedBy)

	assert.Equal(t, 54, f.stockOnHand(t))

	var po purchase.PurchaseOrder
	require.NoError(t, f.db.First(&po, f.po.ID).Error)
	assert.Equal(t, purchase.StatusPartiallyReceived, po.Status)

	var request procurement.ProcurementRequest
	require.NoError(t, f.db.First(&request, f.request.ID).Error)
	assert.Equal(t, procurement.StatusPartiallyReceived, request.Status)

	// Receive the remainder
	_, err = f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                6,
	}, storekeeper)
	require.NoError(t, err)

	assert.Equal(t, 60, f.stockOnHand(t))

	require.NoError(t, f.db.First(&po, f.po.ID).Error)
	assert.Equal(t, purchase.StatusFullyReceived, po.Status)

	require.NoError(t, f.db.First(&request, f.request.ID).Error)
	assert.Equal(t, procurement.StatusReceived, request.Status)

	var line procurement.ProcurementLineItem
	require.NoError(t, f.db.Where("procurement_request_id = ?", f.request.ID).First(&line).Error)
	assert.Equal(t, 10, line.ReceivedQty)
}

func TestPostReceiptOverOutstandingQuantity(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	// Outstanding is 10; 15 must fail without touching anything
	_, err := f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                15,
	}, storekeeper)
	assert.True(t, apperror.IsKind(err, apperror.KindQuantityConstraint))

	assert.Equal(t, 50, f.stockOnHand(t))
	var count int64
	f.db.Model(&receiving.GoodsReceipt{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// A second receipt may not overshoot what the first left outstanding
	_, err = f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                7,
	}, storekeeper)
	require.NoError(t, err)

	_, err = f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                4,
	}, storekeeper)
	assert.True(t, apperror.IsKind(err, apperror.KindQuantityConstraint))
	assert.Equal(t, 57, f.stockOnHand(t))
}

func TestPostReceiptNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	for _, qty := range []int{0, -3} {
		_, err := f.svc.PostReceipt(&receiving.PostReceiptRequest{
			PurchaseOrderLineItemID: lineID,
			Quantity:                qty,
		}, storekeeper)
		assert.True(t, apperror.IsKind(err, apperror.KindQuantityConstraint), "quantity %d", qty)
	}
}

func TestPostReceiptIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	req := &receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                4,
		IdempotencyKey:          "f3b4e9c2-0000-4000-8000-1234567890ab",
	}

	first, err := f.svc.PostReceipt(req, storekeeper)
	require.NoError(t, err)

	// Resubmission returns the original receipt and posts nothing new
	second, err := f.svc.PostReceipt(req, storekeeper)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 54, f.stockOnHand(t))
	var count int64
	f.db.Model(&receiving.GoodsReceipt{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPostReceiptAgainstUnconfirmedOrder(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	_, err := f.purchaseSvc.Cancel(f.po.ID, procurer)
	require.NoError(t, err)

	_, err = f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: lineID,
		Quantity:                1,
	}, storekeeper)
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))
}

func TestPostReceiptUnknownLine(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PostReceipt(&receiving.PostReceiptRequest{
		PurchaseOrderLineItemID: 9999,
		Quantity:                1,
	}, storekeeper)
	assert.True(t, apperror.IsKind(err, apperror.KindReferential))
}

func TestListForPurchaseOrder(t *testing.T) {
	f := newFixture(t)
	lineID := f.poLineID(t)

	for _, qty := range []int{3, 2} {
		_, err := f.svc.PostReceipt(&receiving.PostReceiptRequest{
			PurchaseOrderLineItemID: lineID,
			Quantity:                qty,
		}, storekeeper)
		require.NoError(t, err)
	}

	receipts, err := f.svc.ListForPurchaseOrder(f.po.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, 3, receipts[0].Quantity)
	assert.Equal(t, 2, receipts[1].Quantity)

	empty, err := f.svc.ListForPurchaseOrder(9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

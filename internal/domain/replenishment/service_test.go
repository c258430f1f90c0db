// internal/domain/replenishment/service_test.go
package replenishment_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/replenishment"
	"github.com/your-org/procurement-backend/internal/domain/statistics"
	"github.com/your-org/procurement-backend/internal/infrastructure/database/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *replenishment.Service) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.Models()...))

	cfg := &config.Config{
		Replenishment: config.ReplenishmentConfig{
			OrderingCost:       decimal.NewFromInt(50000),
			HoldingCostPct:     decimal.NewFromFloat(0.20),
			DemandWindowDays:   90,
			LeadTimeWindowDays: 180,
		},
	}

	catalogSvc := catalog.NewService(db)
	return db, replenishment.NewService(statistics.NewAggregator(db, cfg), catalogSvc, cfg)
}

func seedDemandHistory(t *testing.T, db *gorm.DB, ref catalog.ItemRef, qty int, createdAt time.Time) {
	t.Helper()
	request := procurement.ProcurementRequest{
		TriggerType: procurement.TriggerOrder,
		Status:      procurement.StatusProcessed,
		RequestedBy: 1,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&request).Error)
	require.NoError(t, db.Create(&procurement.ProcurementLineItem{
		ProcurementRequestID: request.ID,
		ItemRef:              ref,
		RequestedQty:         qty,
		UnitPrice:            decimal.NewFromInt(10000),
		CreatedAt:            createdAt,
	}).Error)
}

func TestCalculateWithoutHistoryZeroesParameters(t *testing.T) {
	db, svc := newTestService(t)

	m := catalog.Material{Code: "MAT-X", Name: "Material X", Unit: "kg", UnitPrice: decimal.NewFromInt(10000), StockOnHand: 25}
	require.NoError(t, db.Create(&m).Error)

	result, err := svc.Calculate(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID}, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, statistics.ConfidenceNone, result.Stats.Confidence)
	assert.Equal(t, 0.0, result.Parameters.EOQ)
	assert.Equal(t, 0.0, result.Parameters.SafetyStock)
	assert.Equal(t, 0.0, result.Parameters.ReorderPoint)
	// With zeroed parameters status falls back to raw stock vs zero
	assert.Equal(t, replenishment.StockStatusSafe, result.Parameters.Status)
	assert.False(t, result.Parameters.ShouldReorder)
}

func TestCalculateOutOfStockWithoutHistory(t *testing.T) {
	db, svc := newTestService(t)

	m := catalog.Material{Code: "MAT-X", Name: "Material X", Unit: "kg", UnitPrice: decimal.NewFromInt(10000), StockOnHand: 0}
	require.NoError(t, db.Create(&m).Error)

	result, err := svc.Calculate(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID}, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, replenishment.StockStatusOutOfStock, result.Parameters.Status)
	assert.True(t, result.Parameters.ShouldReorder)
}

func TestCalculateWithDemandHistory(t *testing.T) {
	db, svc := newTestService(t)

	m := catalog.Material{Code: "MAT-X", Name: "Material X", Unit: "kg", UnitPrice: decimal.NewFromInt(10000), StockOnHand: 5}
	require.NoError(t, db.Create(&m).Error)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID}
	for i := 1; i <= 4; i++ {
		seedDemandHistory(t, db, ref, 45, now.AddDate(0, 0, -i*10))
	}

	result, err := svc.Calculate(ref, now)
	require.NoError(t, err)

	assert.Equal(t, statistics.ConfidenceDemandOnly, result.Stats.Confidence)
	assert.InDelta(t, 2.0, result.Stats.AvgDailyDemand, 1e-9)
	assert.Greater(t, result.Parameters.EOQ, 0.0)
	assert.Greater(t, result.Parameters.ReorderPoint, result.Parameters.SafetyStock)
	// 5 on hand against a reorder point built from 2/day over a 7 day
	// default lead time cannot be safe
	assert.NotEqual(t, replenishment.StockStatusSafe, result.Parameters.Status)
	assert.True(t, result.Parameters.ShouldReorder)
}

func TestCalculateUnknownItem(t *testing.T) {
	_, svc := newTestService(t)

	_, err := svc.Calculate(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 999}, time.Now().UTC())
	assert.Error(t, err)
}

func TestDashboardCoversMaterialsAndProducts(t *testing.T) {
	db, svc := newTestService(t)

	require.NoError(t, db.Create(&catalog.Material{Code: "MAT-A", Name: "A", Unit: "kg", UnitPrice: decimal.NewFromInt(5000), StockOnHand: 10}).Error)
	require.NoError(t, db.Create(&catalog.Material{Code: "MAT-B", Name: "B", Unit: "kg", UnitPrice: decimal.NewFromInt(8000), StockOnHand: 0}).Error)
	require.NoError(t, db.Create(&catalog.Product{Code: "PRD-A", Name: "P", Unit: "pcs", UnitPrice: decimal.NewFromInt(20000), StockOnHand: 3}).Error)

	results, err := svc.Dashboard(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, results, 3)

	types := map[catalog.ItemType]int{}
	for _, r := range results {
		types[r.Item.Ref.ItemType]++
	}
	assert.Equal(t, 2, types[catalog.ItemTypeMaterial])
	assert.Equal(t, 1, types[catalog.ItemTypeProduct])
}

func TestLowStockItemsFiltersSafe(t *testing.T) {
	db, svc := newTestService(t)

	require.NoError(t, db.Create(&catalog.Material{Code: "MAT-A", Name: "A", Unit: "kg", UnitPrice: decimal.NewFromInt(5000), StockOnHand: 10}).Error)
	require.NoError(t, db.Create(&catalog.Material{Code: "MAT-B", Name: "B", Unit: "kg", UnitPrice: decimal.NewFromInt(8000), StockOnHand: 0}).Error)

	alerts, err := svc.LowStockItems(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "B", alerts[0].Item.Name)
	assert.Equal(t, replenishment.StockStatusOutOfStock, alerts[0].Parameters.Status)
}

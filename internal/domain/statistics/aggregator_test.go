// internal/domain/statistics/aggregator_test.go
package statistics_test

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
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"github.com/your-org/procurement-backend/internal/domain/receiving"
	"github.com/your-org/procurement-backend/internal/domain/statistics"
	"github.com/your-org/procurement-backend/internal/infrastructure/database/postgres"
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

func testConfig() *config.Config {
	return &config.Config{
		Replenishment: config.ReplenishmentConfig{
			OrderingCost:       decimal.NewFromInt(50000),
			HoldingCostPct:     decimal.NewFromFloat(0.20),
			DemandWindowDays:   90,
			LeadTimeWindowDays: 180,
		},
	}
}

// seedDemand creates a processed request with one line for the item,
// backdated to createdAt.
func seedDemand(t *testing.T, db *gorm.DB, ref catalog.ItemRef, qty int, createdAt time.Time) procurement.ProcurementLineItem {
	t.Helper()
	request := procurement.ProcurementRequest{
		TriggerType: procurement.TriggerOrder,
		Status:      procurement.StatusProcessed,
		RequestedBy: 1,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&request).Error)

	line := procurement.ProcurementLineItem{
		ProcurementRequestID: request.ID,
		ItemRef:              ref,
		RequestedQty:         qty,
		UnitPrice:            decimal.NewFromInt(10000),
		CreatedAt:            createdAt,
	}
	require.NoError(t, db.Create(&line).Error)
	return line
}

// seedReceipt hangs a purchase order and one completed receipt off the
// given procurement line.
func seedReceipt(t *testing.T, db *gorm.DB, line procurement.ProcurementLineItem, orderDate, receivedAt time.Time) {
	t.Helper()
	po := purchase.PurchaseOrder{
		Code:                 fmt.Sprintf("PO-TEST-%04d", line.ID),
		ProcurementRequestID: line.ProcurementRequestID,
		SupplierID:           1,
		Status:               purchase.StatusFullyReceived,
		OrderDate:            orderDate,
		CreatedBy:            1,
	}
	require.NoError(t, db.Create(&po).Error)

	poLine := purchase.PurchaseOrderLineItem{
		PurchaseOrderID:       po.ID,
		ProcurementLineItemID: line.ID,
	}
	require.NoError(t, db.Create(&poLine).Error)

	receipt := receiving.GoodsReceipt{
		PurchaseOrderLineItemID: poLine.ID,
		Quantity:                line.RequestedQty,
		IdempotencyKey:          fmt.Sprintf("key-%d", line.ID),
		ReceivedBy:              1,
		CreatedAt:               receivedAt,
	}
	require.NoError(t, db.Create(&receipt).Error)
}

func TestAggregateNoHistoryUsesPlaceholders(t *testing.T) {
	db := newTestDB(t)
	agg := statistics.NewAggregator(db, testConfig())

	stats, err := agg.Aggregate(catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 42}, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, statistics.ConfidenceNone, stats.Confidence)
	assert.Equal(t, 0.0, stats.AvgDailyDemand)
	assert.Equal(t, statistics.DefaultDemandStdDev, stats.DemandStdDev)
	assert.Equal(t, statistics.DefaultLeadTimeDays, stats.AvgLeadTimeDays)
	assert.Equal(t, 0.0, stats.AnnualDemand)
}

func TestAggregateDemandOnly(t *testing.T) {
	db := newTestDB(t)
	agg := statistics.NewAggregator(db, testConfig())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 1}

	// 90 units over a 90-day window averages one per day
	seedDemand(t, db, ref, 90, now.AddDate(0, 0, -10))

	stats, err := agg.Aggregate(ref, now)
	require.NoError(t, err)

	assert.Equal(t, statistics.ConfidenceDemandOnly, stats.Confidence)
	assert.InDelta(t, 1.0, stats.AvgDailyDemand, 1e-9)
	assert.InDelta(t, 365.0, stats.AnnualDemand, 1e-9)
	assert.Greater(t, stats.DemandStdDev, 0.0) // one spike day, zero elsewhere
	assert.Equal(t, statistics.DefaultLeadTimeDays, stats.AvgLeadTimeDays)
}

func TestAggregateFullHistory(t *testing.T) {
	db := newTestDB(t)
	agg := statistics.NewAggregator(db, testConfig())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 1}

	line := seedDemand(t, db, ref, 30, now.AddDate(0, 0, -20))
	orderDate := now.AddDate(0, 0, -17)
	seedReceipt(t, db, line, orderDate, orderDate.AddDate(0, 0, 7))

	stats, err := agg.Aggregate(ref, now)
	require.NoError(t, err)

	assert.Equal(t, statistics.ConfidenceFull, stats.Confidence)
	assert.InDelta(t, 7.0, stats.AvgLeadTimeDays, 1e-9)
	assert.Greater(t, stats.AvgDailyDemand, 0.0)
}

func TestAggregateIgnoresOtherItemsAndOldHistory(t *testing.T) {
	db := newTestDB(t)
	agg := statistics.NewAggregator(db, testConfig())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: 1}

	// Different item, and same item outside the demand window
	seedDemand(t, db, catalog.ItemRef{ItemType: catalog.ItemTypeProduct, ItemID: 1}, 50, now.AddDate(0, 0, -5))
	seedDemand(t, db, ref, 50, now.AddDate(0, 0, -120))

	stats, err := agg.Aggregate(ref, now)
	require.NoError(t, err)
	assert.Equal(t, statistics.ConfidenceNone, stats.Confidence)
}

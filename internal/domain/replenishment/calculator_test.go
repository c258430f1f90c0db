// internal/domain/replenishment/calculator_test.go
package replenishment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEOQ(t *testing.T) {
	// sqrt(2 * 12000 * 50000 / 2000) = sqrt(600000)
	assert.InDelta(t, 774.5966, EOQ(12000, 50000, 2000), 1e-3)
}

func TestEOQDegradesToZeroOnNonPositiveInputs(t *testing.T) {
	assert.Equal(t, 0.0, EOQ(0, 50000, 2000))
	assert.Equal(t, 0.0, EOQ(12000, 0, 2000))
	assert.Equal(t, 0.0, EOQ(12000, 50000, 0))
	assert.Equal(t, 0.0, EOQ(-1, 50000, 2000))
}

func TestSafetyStock(t *testing.T) {
	expected := ServiceLevelZ * 10 * math.Sqrt(7)
	assert.InDelta(t, expected, SafetyStock(10, 7), 1e-9)

	assert.Equal(t, 0.0, SafetyStock(0, 7))
	assert.Equal(t, 0.0, SafetyStock(10, 0))
}

func TestReorderPoint(t *testing.T) {
	assert.InDelta(t, 50.0, ReorderPoint(3, 10, 20), 1e-9)
	assert.InDelta(t, 0.0, ReorderPoint(0, 0, 0), 1e-9)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		rop      float64
		ss       float64
		expected StockStatus
	}{
		{"above reorder point", 60, 50, 20, StockStatusSafe},
		{"at reorder point", 50, 50, 20, StockStatusLow},
		{"between safety stock and reorder point", 40, 50, 20, StockStatusLow},
		{"at safety stock", 20, 50, 20, StockStatusCritical},
		{"below safety stock", 5, 50, 20, StockStatusCritical},
		{"zero stock", 0, 50, 20, StockStatusOutOfStock},
		{"negative stock", -3, 50, 20, StockStatusOutOfStock},
		{"no parameters positive stock", 10, 0, 0, StockStatusSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.stock, tt.rop, tt.ss))
		})
	}
}

func TestComputeLowStockScenario(t *testing.T) {
	// avg daily 3 over a 10-day lead time, stddev tuned so the safety
	// stock lands near 20 and the reorder point near 50
	stddev := 20.0 / (ServiceLevelZ * math.Sqrt(10))
	params := Compute(1095, 3, stddev, 10, 50000, 2000, 40)

	assert.InDelta(t, 20.0, params.SafetyStock, 1e-6)
	assert.InDelta(t, 50.0, params.ReorderPoint, 1e-6)
	assert.Greater(t, params.EOQ, 0.0)
	assert.Equal(t, StockStatusLow, params.Status)
	assert.True(t, params.ShouldReorder)
}

func TestComputeSafeStock(t *testing.T) {
	params := Compute(1095, 3, 2, 10, 50000, 2000, 500)

	assert.Equal(t, StockStatusSafe, params.Status)
	assert.False(t, params.ShouldReorder)
}

func TestComputeReorderAtExactReorderPoint(t *testing.T) {
	params := Compute(1095, 3, 0, 10, 50000, 2000, 30)

	// rop = 3*10 + 0; stock equal to the reorder point still reorders
	assert.InDelta(t, 30.0, params.ReorderPoint, 1e-9)
	assert.True(t, params.ShouldReorder)
	assert.Equal(t, StockStatusLow, params.Status)
}

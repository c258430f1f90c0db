// internal/domain/replenishment/calculator.go
package replenishment

import "math"

// ServiceLevelZ is the z-score for a 95% service level. Fixed for all
// items; per-item service levels are not supported.
const ServiceLevelZ = 1.65

// StockStatus classifies current on-hand stock against the reorder
// parameters
type StockStatus string

const (
	StockStatusSafe       StockStatus = "safe"
	StockStatusLow        StockStatus = "low"
	StockStatusCritical   StockStatus = "critical"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// Parameters are the derived reorder parameters for one item. They are
// a pure function of the item's stats and price and have no lifecycle
// of their own.
type Parameters struct {
	EOQ           float64     `json:"eoq"`
	SafetyStock   float64     `json:"safety_stock"`
	ReorderPoint  float64     `json:"reorder_point"`
	Status        StockStatus `json:"status"`
	ShouldReorder bool        `json:"should_reorder"`
}

// EOQ computes the economic order quantity. Any non-positive input
// makes the formula meaningless, so the result degrades to zero.
func EOQ(annualDemand, orderingCost, holdingCost float64) float64 {
	if annualDemand <= 0 || orderingCost <= 0 || holdingCost <= 0 {
		return 0
	}
	return math.Sqrt((2 * annualDemand * orderingCost) / holdingCost)
}

// SafetyStock computes the buffer protecting against demand and
// lead-time variability
func SafetyStock(demandStdDev, leadTimeDays float64) float64 {
	if demandStdDev <= 0 || leadTimeDays <= 0 {
		return 0
	}
	return ServiceLevelZ * demandStdDev * math.Sqrt(leadTimeDays)
}

// ReorderPoint computes the stock level at which replenishment should
// be triggered
func ReorderPoint(avgDailyDemand, leadTimeDays, safetyStock float64) float64 {
	return avgDailyDemand*leadTimeDays + safetyStock
}

// Classify evaluates on-hand stock against the reorder parameters
func Classify(stock int, reorderPoint, safetyStock float64) StockStatus {
	s := float64(stock)
	switch {
	case s > reorderPoint:
		return StockStatusSafe
	case s > safetyStock:
		return StockStatusLow
	case s > 0:
		return StockStatusCritical
	default:
		return StockStatusOutOfStock
	}
}

// Compute derives the full parameter set for one item
func Compute(annualDemand, avgDailyDemand, demandStdDev, leadTimeDays, orderingCost, holdingCost float64, stock int) Parameters {
	eoq := EOQ(annualDemand, orderingCost, holdingCost)
	ss := SafetyStock(demandStdDev, leadTimeDays)
	rop := ReorderPoint(avgDailyDemand, leadTimeDays, ss)

	return Parameters{
		EOQ:           eoq,
		SafetyStock:   ss,
		ReorderPoint:  rop,
		Status:        Classify(stock, rop, ss),
		ShouldReorder: float64(stock) <= rop,
	}
}

// internal/domain/statistics/aggregator.go
package statistics

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Placeholder values used when the history store has nothing to say.
// They are only ever returned together with a Confidence that says so.
const (
	DefaultDemandStdDev = 10.0
	DefaultLeadTimeDays = 7.0
	DaysPerYear         = 365
)

// Confidence states how much of the result is backed by actual history
// rather than placeholder defaults.
type Confidence string

const (
	ConfidenceNone         Confidence = "none"
	ConfidenceDemandOnly   Confidence = "demand_only"
	ConfidenceLeadTimeOnly Confidence = "lead_time_only"
	ConfidenceFull         Confidence = "full"
)

// Stats is the derived demand profile of one item. It is a pure
// projection of the transaction history and is recomputed on read.
type Stats struct {
	AvgDailyDemand  float64    `json:"avg_daily_demand"`
	DemandStdDev    float64    `json:"demand_stddev"`
	AvgLeadTimeDays float64    `json:"avg_lead_time_days"`
	AnnualDemand    float64    `json:"annual_demand"`
	Confidence      Confidence `json:"confidence"`
}

// Aggregator derives per-item demand and lead-time statistics from the
// transaction history (procurement lines and goods receipts). It holds
// no mutable state of its own.
type Aggregator struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAggregator creates a new statistics aggregator
func NewAggregator(db *gorm.DB, cfg *config.Config) *Aggregator {
	return &Aggregator{db: db, cfg: cfg}
}

// Aggregate computes the stats for one item as of now
func (a *Aggregator) Aggregate(ref catalog.ItemRef, now time.Time) (*Stats, error) {
	demandFrom := now.AddDate(0, 0, -a.cfg.Replenishment.DemandWindowDays)
	events, err := a.demandEvents(ref, demandFrom, now)
	if err != nil {
		return nil, err
	}

	leadFrom := now.AddDate(0, 0, -a.cfg.Replenishment.LeadTimeWindowDays)
	samples, err := a.leadTimeSamples(ref, leadFrom, now)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	hasDemand := len(events) > 0
	hasLeadTime := len(samples) > 0

	if hasDemand {
		totals := DailyTotals(events, demandFrom, now)
		stats.AvgDailyDemand, stats.DemandStdDev = MeanStdDev(totals)
	} else {
		stats.AvgDailyDemand = 0
		stats.DemandStdDev = DefaultDemandStdDev
	}

	if hasLeadTime {
		stats.AvgLeadTimeDays = MeanLeadTimeDays(samples)
	} else {
		stats.AvgLeadTimeDays = DefaultLeadTimeDays
	}

	stats.AnnualDemand = stats.AvgDailyDemand * DaysPerYear

	switch {
	case hasDemand && hasLeadTime:
		stats.Confidence = ConfidenceFull
	case hasDemand:
		stats.Confidence = ConfidenceDemandOnly
	case hasLeadTime:
		stats.Confidence = ConfidenceLeadTimeOnly
	default:
		stats.Confidence = ConfidenceNone
	}

	return stats, nil
}

// demandEvents reads historical procurement line quantities for the item
func (a *Aggregator) demandEvents(ref catalog.ItemRef, from, to time.Time) ([]DemandEvent, error) {
	type row struct {
		CreatedAt    time.Time
		RequestedQty int
	}

	var rows []row
	err := a.db.
		Table("procurement_line_items").
		Select("procurement_line_items.created_at, procurement_line_items.requested_qty").
		Joins("JOIN procurement_requests ON procurement_requests.id = procurement_line_items.procurement_request_id").
		Where("procurement_line_items.deleted_at IS NULL").
		Where("procurement_requests.deleted_at IS NULL").
		Where("procurement_line_items.item_type = ? AND procurement_line_items.item_id = ?", ref.ItemType, ref.ItemID).
		Where("procurement_line_items.created_at >= ? AND procurement_line_items.created_at < ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read demand history: %w", err)
	}

	events := make([]DemandEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, DemandEvent{Date: r.CreatedAt, Quantity: r.RequestedQty})
	}
	return events, nil
}

// leadTimeSamples reads completed receipts for the item together with
// the order date of the purchase order they were posted against
func (a *Aggregator) leadTimeSamples(ref catalog.ItemRef, from, to time.Time) ([]LeadTimeSample, error) {
	type row struct {
		OrderDate  time.Time
		ReceivedAt time.Time
	}

	var rows []row
	err := a.db.
		Table("goods_receipts").
		Select("purchase_orders.order_date, goods_receipts.created_at AS received_at").
		Joins("JOIN purchase_order_line_items ON purchase_order_line_items.id = goods_receipts.purchase_order_line_item_id").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_line_items.purchase_order_id").
		Joins("JOIN procurement_line_items ON procurement_line_items.id = purchase_order_line_items.procurement_line_item_id").
		Where("procurement_line_items.item_type = ? AND procurement_line_items.item_id = ?", ref.ItemType, ref.ItemID).
		Where("goods_receipts.created_at >= ? AND goods_receipts.created_at < ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read lead time history: %w", err)
	}

	samples := make([]LeadTimeSample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, LeadTimeSample{OrderedAt: r.OrderDate, ReceivedAt: r.ReceivedAt})
	}
	return samples, nil
}

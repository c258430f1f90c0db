// internal/domain/replenishment/service.go
package replenishment

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/statistics"
)

// Service produces reorder parameters and stock status per item. It is
// a read-time projection over the statistics aggregator and the
// catalog; nothing here is cached or invalidated.
type Service struct {
	aggregator *statistics.Aggregator
	catalog    *catalog.Service
	cfg        *config.Config
}

// NewService creates a new replenishment service
func NewService(aggregator *statistics.Aggregator, catalogService *catalog.Service, cfg *config.Config) *Service {
	return &Service{
		aggregator: aggregator,
		catalog:    catalogService,
		cfg:        cfg,
	}
}

// ItemParameters is the dashboard view of one item
type ItemParameters struct {
	Item       catalog.Item     `json:"item"`
	Stats      statistics.Stats `json:"stats"`
	Parameters Parameters       `json:"parameters"`
}

// Calculate derives the reorder parameters for one item as of now
func (s *Service) Calculate(ref catalog.ItemRef, now time.Time) (*ItemParameters, error) {
	item, err := s.catalog.Resolve(ref)
	if err != nil {
		return nil, err
	}

	stats, err := s.aggregator.Aggregate(ref, now)
	if err != nil {
		return nil, err
	}

	return &ItemParameters{
		Item:       *item,
		Stats:      *stats,
		Parameters: s.parameters(item, stats),
	}, nil
}

// parameters applies the reorder formulas to one resolved item
func (s *Service) parameters(item *catalog.Item, stats *statistics.Stats) Parameters {
	// An item with no history at all gets zeroed parameters rather
	// than ones built from the placeholder stddev and lead time:
	// status then degrades to raw stock vs zero.
	if stats.Confidence == statistics.ConfidenceNone {
		return Parameters{
			Status:        Classify(item.StockOnHand, 0, 0),
			ShouldReorder: item.StockOnHand <= 0,
		}
	}

	holdingCost := item.UnitPrice.Mul(s.cfg.Replenishment.HoldingCostPct)

	return Compute(
		stats.AnnualDemand,
		stats.AvgDailyDemand,
		stats.DemandStdDev,
		stats.AvgLeadTimeDays,
		s.cfg.Replenishment.OrderingCost.InexactFloat64(),
		holdingCost.InexactFloat64(),
		item.StockOnHand,
	)
}

// Dashboard computes parameters for every material and product
func (s *Service) Dashboard(now time.Time) ([]ItemParameters, error) {
	materials, err := s.catalog.ListMaterials()
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	products, err := s.catalog.ListProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	results := make([]ItemParameters, 0, len(materials)+len(products))
	for _, m := range materials {
		ref := catalog.ItemRef{ItemType: catalog.ItemTypeMaterial, ItemID: m.ID}
		params, err := s.Calculate(ref, now)
		if err != nil {
			return nil, err
		}
		results = append(results, *params)
	}
	for _, p := range products {
		ref := catalog.ItemRef{ItemType: catalog.ItemTypeProduct, ItemID: p.ID}
		params, err := s.Calculate(ref, now)
		if err != nil {
			return nil, err
		}
		results = append(results, *params)
	}

	return results, nil
}

// LowStockItems filters the dashboard down to items needing attention
func (s *Service) LowStockItems(now time.Time) ([]ItemParameters, error) {
	all, err := s.Dashboard(now)
	if err != nil {
		return nil, err
	}

	alerts := make([]ItemParameters, 0)
	for _, item := range all {
		if item.Parameters.Status != StockStatusSafe {
			alerts = append(alerts, item)
		}
	}
	return alerts, nil
}

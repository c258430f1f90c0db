// internal/interfaces/http/handlers/replenishment.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/replenishment"
	"github.com/your-org/procurement-backend/internal/domain/statistics"
	"gorm.io/gorm"
)

// ReplenishmentHandler handles reorder parameter endpoints
type ReplenishmentHandler struct {
	replenishmentService *replenishment.Service
	config               *config.Config
}

// NewReplenishmentHandler creates a new replenishment handler
func NewReplenishmentHandler(db *gorm.DB, cfg *config.Config) *ReplenishmentHandler {
	catalogService := catalog.NewService(db)
	return &ReplenishmentHandler{
		replenishmentService: replenishment.NewService(
			statistics.NewAggregator(db, cfg),
			catalogService,
			cfg,
		),
		config: cfg,
	}
}

// CalculateItem handles GET /replenishment/items/:itemType/:itemId
func (h *ReplenishmentHandler) CalculateItem(c *gin.Context) {
	itemType := catalog.ItemType(c.Param("itemType"))
	if !itemType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item type",
		})
		return
	}

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return
	}

	ref := catalog.ItemRef{ItemType: itemType, ItemID: uint(itemID)}
	params, err := h.replenishmentService.Calculate(ref, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reorder parameters calculated successfully",
		"data":    params,
	})
}

// Dashboard handles GET /replenishment/dashboard
func (h *ReplenishmentHandler) Dashboard(c *gin.Context) {
	items, err := h.replenishmentService.Dashboard(time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Replenishment dashboard retrieved successfully",
		"data":    items,
	})
}

// LowStock handles GET /replenishment/low-stock
func (h *ReplenishmentHandler) LowStock(c *gin.Context) {
	items, err := h.replenishmentService.LowStockItems(time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Low stock items retrieved successfully",
		"data":    items,
	})
}

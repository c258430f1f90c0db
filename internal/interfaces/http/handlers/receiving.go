// internal/interfaces/http/handlers/receiving.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"github.com/your-org/procurement-backend/internal/domain/receiving"
	"gorm.io/gorm"
)

// ReceivingHandler handles goods receipt endpoints
type ReceivingHandler struct {
	receivingService *receiving.Service
	config           *config.Config
}

// NewReceivingHandler creates a new receiving handler
func NewReceivingHandler(db *gorm.DB, cfg *config.Config) *ReceivingHandler {
	catalogService := catalog.NewService(db)
	return &ReceivingHandler{
		receivingService: receiving.NewService(
			db,
			catalogService,
			procurement.NewService(db, catalogService),
			purchase.NewService(db, catalogService),
		),
		config: cfg,
	}
}

// PostReceipt handles POST /receipts
func (h *ReceivingHandler) PostReceipt(c *gin.Context) {
	actor, exists := actorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req receiving.PostReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	receipt, err := h.receivingService.PostReceipt(&req, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Goods receipt posted successfully",
		"data":    receipt,
	})
}

// Get handles GET /receipts/:id
func (h *ReceivingHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	receipt, err := h.receivingService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Goods receipt retrieved successfully",
		"data":    receipt,
	})
}

// ListForPurchaseOrder handles GET /purchase-orders/:id/receipts
func (h *ReceivingHandler) ListForPurchaseOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	receipts, err := h.receivingService.ListForPurchaseOrder(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve goods receipts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Goods receipts retrieved successfully",
		"data":    receipts,
	})
}

// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"gorm.io/gorm"
)

// PurchaseHandler handles purchase order endpoints
type PurchaseHandler struct {
	purchaseService *purchase.Service
	config          *config.Config
}

// NewPurchaseHandler creates a new purchase order handler
func NewPurchaseHandler(db *gorm.DB, cfg *config.Config) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchase.NewService(db, catalog.NewService(db)),
		config:          cfg,
	}
}

// Generate handles POST /purchase-orders/generate
func (h *PurchaseHandler) Generate(c *gin.Context) {
	actor, exists := actorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req struct {
		ProcurementRequestID uint `json:"procurement_request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	orders, err := h.purchaseService.GenerateFromRequest(req.ProcurementRequestID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase orders generated successfully",
		"data":    orders,
	})
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	po, err := h.purchaseService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase order retrieved successfully",
		"data":    po,
	})
}

// List handles GET /purchase-orders
func (h *PurchaseHandler) List(c *gin.Context) {
	var req purchase.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.purchaseService.List(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve purchase orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase orders retrieved successfully",
		"data":    response,
	})
}

// Send handles POST /purchase-orders/:id/send
func (h *PurchaseHandler) Send(c *gin.Context) {
	h.transition(c, h.purchaseService.Send, "Purchase order sent to supplier")
}

// Confirm handles POST /purchase-orders/:id/confirm
func (h *PurchaseHandler) Confirm(c *gin.Context) {
	h.transition(c, h.purchaseService.Confirm, "Purchase order confirmed")
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	h.transition(c, h.purchaseService.Cancel, "Purchase order cancelled")
}

func (h *PurchaseHandler) transition(c *gin.Context, fn func(uint, procurement.Actor) (*purchase.PurchaseOrder, error), message string) {
	actor, exists := actorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	po, err := fn(id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    po,
	})
}

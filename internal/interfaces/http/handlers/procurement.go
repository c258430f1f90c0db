// internal/interfaces/http/handlers/procurement.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// ProcurementHandler handles procurement request endpoints
type ProcurementHandler struct {
	procurementService *procurement.Service
	config             *config.Config
}

// NewProcurementHandler creates a new procurement handler
func NewProcurementHandler(db *gorm.DB, cfg *config.Config) *ProcurementHandler {
	return &ProcurementHandler{
		procurementService: procurement.NewService(db, catalog.NewService(db)),
		config:             cfg,
	}
}

// Create handles POST /procurement/requests
func (h *ProcurementHandler) Create(c *gin.Context) {
	actor, exists := actorFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req procurement.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	request, err := h.procurementService.Create(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Procurement request created successfully",
		"data":    request,
	})
}

// Get handles GET /procurement/requests/:id
func (h *ProcurementHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	request, err := h.procurementService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request retrieved successfully",
		"data":    request,
	})
}

// List handles GET /procurement/requests
func (h *ProcurementHandler) List(c *gin.Context) {
	var req procurement.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.procurementService.List(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve procurement requests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement requests retrieved successfully",
		"data":    response,
	})
}

// Update handles PUT /procurement/requests/:id
func (h *ProcurementHandler) Update(c *gin.Context) {
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

	var req procurement.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	request, err := h.procurementService.Update(id, actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request updated successfully",
		"data":    request,
	})
}

// Approve handles POST /procurement/requests/:id/approve
func (h *ProcurementHandler) Approve(c *gin.Context) {
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

	var req procurement.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	request, err := h.procurementService.Approve(id, actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request approved successfully",
		"data":    request,
	})
}

// Reject handles POST /procurement/requests/:id/reject
func (h *ProcurementHandler) Reject(c *gin.Context) {
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

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	request, err := h.procurementService.Reject(id, actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request rejected",
		"data":    request,
	})
}

// Cancel handles POST /procurement/requests/:id/cancel
func (h *ProcurementHandler) Cancel(c *gin.Context) {
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

	request, err := h.procurementService.Cancel(id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request cancelled",
		"data":    request,
	})
}

// Delete handles DELETE /procurement/requests/:id
func (h *ProcurementHandler) Delete(c *gin.Context) {
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

	if err := h.procurementService.Delete(id, actor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Procurement request deleted successfully",
	})
}

// parseIDParam parses the :id path parameter
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID",
		})
		return 0, false
	}
	return uint(id), true
}

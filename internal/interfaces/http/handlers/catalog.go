// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// CatalogHandler handles master-data endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	config         *config.Config
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalog.NewService(db),
		config:         cfg,
	}
}

// CreateMaterial handles POST /materials
func (h *CatalogHandler) CreateMaterial(c *gin.Context) {
	var req catalog.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	material, err := h.catalogService.CreateMaterial(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Material created successfully",
		"data":    material,
	})
}

// ListMaterials handles GET /materials
func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	materials, err := h.catalogService.ListMaterials()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve materials",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Materials retrieved successfully",
		"data":    materials,
	})
}

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.CreateProduct(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product,
	})
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// CreateSupplier handles POST /suppliers
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req catalog.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	supplier, err := h.catalogService.CreateSupplier(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Supplier created successfully",
		"data":    supplier,
	})
}

// ListSuppliers handles GET /suppliers
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.catalogService.ListSuppliers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve suppliers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Suppliers retrieved successfully",
		"data":    suppliers,
	})
}

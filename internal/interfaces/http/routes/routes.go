// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/user"
	"github.com/your-org/procurement-backend/internal/interfaces/http/handlers"
	"github.com/your-org/procurement-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all route groups onto the v1 API group. Route-level
// role guards are coarse; the fine-grained per-stage guards live in the
// domain services.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	setupAuthRoutes(rg, db, cfg)
	setupCatalogRoutes(rg, db, cfg)
	setupProcurementRoutes(rg, db, cfg)
	setupPurchaseRoutes(rg, db, cfg)
	setupReceivingRoutes(rg, db, cfg)
	setupReplenishmentRoutes(rg, db, cfg)
}

// setupAuthRoutes sets up authentication related routes
func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// setupCatalogRoutes sets up master-data routes. Reads are open to any
// authenticated user; writes are limited to procurement and admin.
func setupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

	catalog := rg.Group("")
	catalog.Use(middleware.AuthMiddleware(cfg))
	{
		catalog.GET("/materials", catalogHandler.ListMaterials)
		catalog.GET("/products", catalogHandler.ListProducts)
		catalog.GET("/suppliers", catalogHandler.ListSuppliers)

		writes := catalog.Group("")
		writes.Use(middleware.RequireRole(user.RoleProcurement))
		{
			writes.POST("/materials", catalogHandler.CreateMaterial)
			writes.POST("/products", catalogHandler.CreateProduct)
			writes.POST("/suppliers", catalogHandler.CreateSupplier)
		}
	}
}

// setupProcurementRoutes sets up procurement request routes
func setupProcurementRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	procurementHandler := handlers.NewProcurementHandler(db, cfg)

	requests := rg.Group("/procurement/requests")
	requests.Use(middleware.AuthMiddleware(cfg))
	{
		requests.POST("", procurementHandler.Create)
		requests.GET("", procurementHandler.List)
		requests.GET("/:id", procurementHandler.Get)
		requests.PUT("/:id", procurementHandler.Update)
		requests.DELETE("/:id", procurementHandler.Delete)

		requests.POST("/:id/approve", procurementHandler.Approve)
		requests.POST("/:id/reject", procurementHandler.Reject)
		requests.POST("/:id/cancel", procurementHandler.Cancel)
	}
}

// setupPurchaseRoutes sets up purchase order routes
func setupPurchaseRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	purchaseHandler := handlers.NewPurchaseHandler(db, cfg)
	receivingHandler := handlers.NewReceivingHandler(db, cfg)

	orders := rg.Group("/purchase-orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("/generate", purchaseHandler.Generate)
		orders.GET("", purchaseHandler.List)
		orders.GET("/:id", purchaseHandler.Get)
		orders.GET("/:id/receipts", receivingHandler.ListForPurchaseOrder)

		orders.POST("/:id/send", purchaseHandler.Send)
		orders.POST("/:id/confirm", purchaseHandler.Confirm)
		orders.POST("/:id/cancel", purchaseHandler.Cancel)
	}
}

// setupReceivingRoutes sets up goods receipt routes. Posting receipts
// is a warehouse operation.
func setupReceivingRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	receivingHandler := handlers.NewReceivingHandler(db, cfg)

	receipts := rg.Group("/receipts")
	receipts.Use(middleware.AuthMiddleware(cfg))
	{
		receipts.GET("/:id", receivingHandler.Get)

		writes := receipts.Group("")
		writes.Use(middleware.RequireRole(user.RoleWarehouse))
		{
			writes.POST("", receivingHandler.PostReceipt)
		}
	}
}

// setupReplenishmentRoutes sets up reorder parameter routes
func setupReplenishmentRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	replenishmentHandler := handlers.NewReplenishmentHandler(db, cfg)

	replenishment := rg.Group("/replenishment")
	replenishment.Use(middleware.AuthMiddleware(cfg))
	{
		replenishment.GET("/dashboard", replenishmentHandler.Dashboard)
		replenishment.GET("/low-stock", replenishmentHandler.LowStock)
		replenishment.GET("/items/:itemType/:itemId", replenishmentHandler.CalculateItem)
	}
}

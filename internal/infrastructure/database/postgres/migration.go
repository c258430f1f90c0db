// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"github.com/your-org/procurement-backend/internal/domain/receiving"
	"github.com/your-org/procurement-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models returns every persistent model in dependency order. The test
// helpers migrate the same list against their own database.
func Models() []interface{} {
	return []interface{}{
		// Actors
		&user.User{},

		// Master data
		&catalog.Material{},
		&catalog.Product{},
		&catalog.Supplier{},

		// Procurement requests
		&procurement.ProcurementRequest{},
		&procurement.ProcurementLineItem{},
		&procurement.StatusHistory{},

		// Purchase orders
		&purchase.PurchaseOrder{},
		&purchase.PurchaseOrderLineItem{},
		&purchase.StatusHistory{},
		&purchase.Sequence{},

		// Goods receipts
		&receiving.GoodsReceipt{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)",

		// Procurement request indexes
		"CREATE INDEX IF NOT EXISTS idx_procurement_requests_status ON procurement_requests(status)",
		"CREATE INDEX IF NOT EXISTS idx_procurement_requests_trigger ON procurement_requests(trigger_type)",
		"CREATE INDEX IF NOT EXISTS idx_procurement_requests_created ON procurement_requests(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_procurement_line_items_request ON procurement_line_items(procurement_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_procurement_line_items_supplier ON procurement_line_items(supplier_id)",
		"CREATE INDEX IF NOT EXISTS idx_procurement_status_history_request ON procurement_status_history(procurement_request_id, created_at DESC)",

		// Purchase order indexes
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_supplier ON purchase_orders(supplier_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_order_date ON purchase_orders(order_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_order_line_items_order ON purchase_order_line_items(purchase_order_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_status_history_order ON purchase_order_status_history(purchase_order_id, created_at DESC)",

		// Goods receipt indexes
		"CREATE INDEX IF NOT EXISTS idx_goods_receipts_line ON goods_receipts(purchase_order_line_item_id)",
		"CREATE INDEX IF NOT EXISTS idx_goods_receipts_created ON goods_receipts(created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := m.seedMasterData(); err != nil {
		return fmt.Errorf("failed to seed master data: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedUsers creates one account per approval role for development
func (m *Migration) seedUsers() error {
	log.Println("👤 Seeding role accounts...")

	accounts := []struct {
		email     string
		firstName string
		role      user.Role
	}{
		{"admin@example.com", "Admin", user.RoleAdmin},
		{"requester@example.com", "Requester", user.RoleRequester},
		{"warehouse@example.com", "Warehouse", user.RoleWarehouse},
		{"procurement@example.com", "Procurement", user.RoleProcurement},
		{"finance@example.com", "Finance", user.RoleFinance},
	}

	for _, account := range accounts {
		var existing user.User
		if err := m.db.Where("email = ?", account.email).First(&existing).Error; err == nil {
			log.Printf("⏭️ User already exists: %s", account.email)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("changeme123"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		u := user.User{
			Email:     account.email,
			Password:  string(hashedPassword),
			FirstName: account.firstName,
			LastName:  "User",
			Role:      account.role,
			IsActive:  true,
		}
		if err := m.db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", account.email, err)
		}
		log.Printf("✅ Created user: %s (role %s)", account.email, account.role)
	}

	return nil
}

// seedMasterData creates sample materials, products and suppliers
func (m *Migration) seedMasterData() error {
	log.Println("📦 Seeding master data...")

	var materialCount int64
	m.db.Model(&catalog.Material{}).Count(&materialCount)
	if materialCount > 0 {
		log.Println("⏭️ Master data already exists")
		return nil
	}

	materials := []catalog.Material{
		{Code: "MAT-FLOUR", Name: "Wheat Flour", Unit: "kg", UnitPrice: decimal.NewFromInt(12000), StockOnHand: 500},
		{Code: "MAT-SUGAR", Name: "Granulated Sugar", Unit: "kg", UnitPrice: decimal.NewFromInt(15000), StockOnHand: 300},
		{Code: "MAT-BUTTER", Name: "Unsalted Butter", Unit: "kg", UnitPrice: decimal.NewFromInt(95000), StockOnHand: 80},
	}
	for _, material := range materials {
		if err := m.db.Create(&material).Error; err != nil {
			return fmt.Errorf("failed to create material %s: %w", material.Code, err)
		}
	}

	products := []catalog.Product{
		{Code: "PRD-BREAD", Name: "White Bread Loaf", Unit: "pcs", UnitPrice: decimal.NewFromInt(18000), StockOnHand: 120},
		{Code: "PRD-CAKE", Name: "Sponge Cake", Unit: "pcs", UnitPrice: decimal.NewFromInt(65000), StockOnHand: 40},
	}
	for _, product := range products {
		if err := m.db.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", product.Code, err)
		}
	}

	suppliers := []catalog.Supplier{
		{Code: "SUP-AGRO", Name: "Agro Mills Ltd", ContactName: "Sari Dewi", Phone: "+62215550101", Email: "sales@agromills.example", IsActive: true},
		{Code: "SUP-DAIRY", Name: "Dairy Farm Co", ContactName: "Budi Santoso", Phone: "+62215550102", Email: "orders@dairyfarm.example", IsActive: true},
	}
	for _, supplier := range suppliers {
		if err := m.db.Create(&supplier).Error; err != nil {
			return fmt.Errorf("failed to create supplier %s: %w", supplier.Code, err)
		}
	}

	log.Printf("✅ Created %d materials, %d products, %d suppliers", len(materials), len(products), len(suppliers))
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-35s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"goods_receipts",
		"purchase_order_status_history",
		"purchase_order_line_items",
		"purchase_orders",
		"purchase_order_sequences",
		"procurement_status_history",
		"procurement_line_items",
		"procurement_requests",
		"suppliers",
		"products",
		"materials",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemType discriminates the two kinds of stockable items. The set is
// closed: every dispatch over it must handle both members and reject
// anything else.
type ItemType string

const (
	ItemTypeMaterial ItemType = "material"
	ItemTypeProduct  ItemType = "product"
)

// IsValid reports whether t is a member of the closed item type set
func (t ItemType) IsValid() bool {
	return t == ItemTypeMaterial || t == ItemTypeProduct
}

// ItemRef is a tagged reference to either a material or a product.
// It is embedded in procurement line items instead of a loose
// (string, id) pair so the discriminator travels with the key.
type ItemRef struct {
	ItemType ItemType `gorm:"not null;size:20;index:idx_item_ref" json:"item_type"`
	ItemID   uint     `gorm:"not null;index:idx_item_ref" json:"item_id"`
}

// Material represents a raw material kept on hand
type Material struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Unit        string          `gorm:"not null;size:20" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	StockOnHand int             `gorm:"not null;default:0" json:"stock_on_hand"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Product represents a finished good kept on hand
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Unit        string          `gorm:"not null;size:20" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	StockOnHand int             `gorm:"not null;default:0" json:"stock_on_hand"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Supplier represents a vendor purchase orders are placed with
type Supplier struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	ContactName string         `gorm:"size:100" json:"contact_name"`
	Phone       string         `gorm:"size:20" json:"phone"`
	Email       string         `gorm:"size:100" json:"email"`
	Address     string         `gorm:"type:text" json:"address"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Item is the flattened read view of whichever side of the union an
// ItemRef points at.
type Item struct {
	Ref         ItemRef         `json:"ref"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	StockOnHand int             `json:"stock_on_hand"`
}

// TableName overrides
func (Material) TableName() string { return "materials" }
func (Product) TableName() string  { return "products" }
func (Supplier) TableName() string { return "suppliers" }

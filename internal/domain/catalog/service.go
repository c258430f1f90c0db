// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"github.com/your-org/procurement-backend/internal/pkg/dbutil"
	"gorm.io/gorm"
)

// Service handles master-data lookups and the stock mutation handle.
// Master-data CRUD beyond what operations need is out of core scope;
// the create/list methods exist for operability and seeding.
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateMaterialRequest represents material creation data
type CreateMaterialRequest struct {
	Code      string          `json:"code" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Unit      string          `json:"unit" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Stock     int             `json:"stock"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Code      string          `json:"code" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Unit      string          `json:"unit" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Stock     int             `json:"stock"`
}

// CreateSupplierRequest represents supplier creation data
type CreateSupplierRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

// Resolve loads the item an ItemRef points at. Dispatch over the union
// is explicit; an unknown discriminator is a referential error, not a
// silent miss.
func (s *Service) Resolve(ref ItemRef) (*Item, error) {
	return s.resolve(s.db, ref, false)
}

// ResolveForUpdate loads the item inside tx with a row lock so a stock
// adjustment in the same transaction cannot race a concurrent receipt.
func (s *Service) ResolveForUpdate(tx *gorm.DB, ref ItemRef) (*Item, error) {
	return s.resolve(tx, ref, true)
}

func (s *Service) resolve(db *gorm.DB, ref ItemRef, lock bool) (*Item, error) {
	if lock {
		db = dbutil.ForUpdate(db)
	}

	switch ref.ItemType {
	case ItemTypeMaterial:
		var m Material
		if err := db.First(&m, ref.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Referential("material %d not found", ref.ItemID)
			}
			return nil, apperror.Persistence(err, "failed to load material %d", ref.ItemID)
		}
		return &Item{Ref: ref, Name: m.Name, Unit: m.Unit, UnitPrice: m.UnitPrice, StockOnHand: m.StockOnHand}, nil
	case ItemTypeProduct:
		var p Product
		if err := db.First(&p, ref.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Referential("product %d not found", ref.ItemID)
			}
			return nil, apperror.Persistence(err, "failed to load product %d", ref.ItemID)
		}
		return &Item{Ref: ref, Name: p.Name, Unit: p.Unit, UnitPrice: p.UnitPrice, StockOnHand: p.StockOnHand}, nil
	default:
		return nil, apperror.Referential("unknown item type %q", ref.ItemType)
	}
}

// AdjustStock increments (or decrements) on-hand stock for the
// referenced item inside tx. Receipt posting is the only caller that
// increments; the mutation stays inside the caller's transaction.
func (s *Service) AdjustStock(tx *gorm.DB, ref ItemRef, delta int) error {
	var result *gorm.DB
	switch ref.ItemType {
	case ItemTypeMaterial:
		result = tx.Model(&Material{}).Where("id = ?", ref.ItemID).
			UpdateColumn("stock_on_hand", gorm.Expr("stock_on_hand + ?", delta))
	case ItemTypeProduct:
		result = tx.Model(&Product{}).Where("id = ?", ref.ItemID).
			UpdateColumn("stock_on_hand", gorm.Expr("stock_on_hand + ?", delta))
	default:
		return apperror.Referential("unknown item type %q", ref.ItemType)
	}

	if result.Error != nil {
		return apperror.Persistence(result.Error, "failed to adjust stock for %s %d", ref.ItemType, ref.ItemID)
	}
	if result.RowsAffected == 0 {
		return apperror.Referential("%s %d not found", ref.ItemType, ref.ItemID)
	}
	return nil
}

// GetSupplier looks up an active supplier by id
func (s *Service) GetSupplier(id uint) (*Supplier, error) {
	var supplier Supplier
	if err := s.db.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("supplier %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to load supplier %d", id)
	}
	return &supplier, nil
}

// CreateMaterial creates a new material
func (s *Service) CreateMaterial(req *CreateMaterialRequest) (*Material, error) {
	if req.UnitPrice.IsNegative() {
		return nil, apperror.ValidationField("unit_price", "unit price must not be negative")
	}

	material := &Material{
		Code:        req.Code,
		Name:        req.Name,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		StockOnHand: req.Stock,
	}
	if err := s.db.Create(material).Error; err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	return material, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(req *CreateProductRequest) (*Product, error) {
	if req.UnitPrice.IsNegative() {
		return nil, apperror.ValidationField("unit_price", "unit price must not be negative")
	}

	product := &Product{
		Code:        req.Code,
		Name:        req.Name,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		StockOnHand: req.Stock,
	}
	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// CreateSupplier creates a new supplier
func (s *Service) CreateSupplier(req *CreateSupplierRequest) (*Supplier, error) {
	supplier := &Supplier{
		Code:        req.Code,
		Name:        req.Name,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		IsActive:    true,
	}
	if err := s.db.Create(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

// ListMaterials retrieves all materials
func (s *Service) ListMaterials() ([]Material, error) {
	var materials []Material
	if err := s.db.Order("code").Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve materials: %w", err)
	}
	return materials, nil
}

// ListProducts retrieves all products
func (s *Service) ListProducts() ([]Product, error) {
	var products []Product
	if err := s.db.Order("code").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// ListSuppliers retrieves all active suppliers
func (s *Service) ListSuppliers() ([]Supplier, error) {
	var suppliers []Supplier
	if err := s.db.Where("is_active = ?", true).Order("code").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve suppliers: %w", err)
	}
	return suppliers, nil
}

// internal/domain/receiving/service.go
package receiving

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/purchase"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"github.com/your-org/procurement-backend/internal/pkg/dbutil"
	"gorm.io/gorm"
)

// Service handles goods receipt posting. It is the only writer of
// on-hand stock and the only trigger for the receiving-derived
// statuses upstream.
type Service struct {
	db          *gorm.DB
	catalog     *catalog.Service
	procurement *procurement.Service
	purchase    *purchase.Service
}

// NewService creates a new receiving service
func NewService(db *gorm.DB, catalogService *catalog.Service, procurementService *procurement.Service, purchaseService *purchase.Service) *Service {
	return &Service{
		db:          db,
		catalog:     catalogService,
		procurement: procurementService,
		purchase:    purchaseService,
	}
}

// PostReceiptRequest represents receipt posting data. The idempotency
// key lets a caller safely resubmit after a failure; a blank key gets
// one generated server-side.
type PostReceiptRequest struct {
	PurchaseOrderLineItemID uint   `json:"purchase_order_line_item_id" binding:"required"`
	Quantity                int    `json:"quantity" binding:"required"`
	IdempotencyKey          string `json:"idempotency_key,omitempty"`
	Notes                   string `json:"notes,omitempty"`
}

// PostReceipt validates and posts one receipt atomically: the receipt
// record, the stock increment and both derived statuses commit
// together or not at all. The outstanding-quantity check runs with the
// procurement line row locked so concurrent receipts against the same
// line serialize.
func (s *Service) PostReceipt(req *PostReceiptRequest, actor procurement.Actor) (*GoodsReceipt, error) {
	if req.Quantity <= 0 {
		return nil, apperror.QuantityConstraint("receipt quantity must be positive, got %d", req.Quantity)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Resubmission of an already-applied receipt returns the original
	// record instead of double-posting.
	var existing GoodsReceipt
	if err := tx.Where("idempotency_key = ?", key).First(&existing).Error; err == nil {
		tx.Rollback()
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to check idempotency key")
	}

	var poLine purchase.PurchaseOrderLineItem
	if err := tx.First(&poLine, req.PurchaseOrderLineItemID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("purchase order line item %d not found", req.PurchaseOrderLineItemID)
		}
		return nil, apperror.Persistence(err, "failed to load purchase order line item %d", req.PurchaseOrderLineItemID)
	}

	var po purchase.PurchaseOrder
	if err := tx.First(&po, poLine.PurchaseOrderID).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Referential("purchase order %d not found", poLine.PurchaseOrderID)
	}
	if !po.CanReceive() {
		tx.Rollback()
		return nil, apperror.StateTransition("purchase order %d cannot receive goods in status %s", po.ID, po.Status)
	}

	// Lock the procurement line; this is the serialization point for
	// concurrent receipts against the same line.
	var procLine procurement.ProcurementLineItem
	if err := dbutil.ForUpdate(tx).First(&procLine, poLine.ProcurementLineItemID).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Referential("procurement line item %d not found", poLine.ProcurementLineItemID)
	}

	var received int64
	err := tx.Model(&GoodsReceipt{}).
		Where("purchase_order_line_item_id = ?", poLine.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&received).Error
	if err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to sum prior receipts for line %d", poLine.ID)
	}

	outstanding := procLine.EffectiveQty() - int(received)
	if req.Quantity > outstanding {
		tx.Rollback()
		return nil, apperror.QuantityConstraint("receipt quantity %d exceeds outstanding quantity %d on line %d", req.Quantity, outstanding, poLine.ID)
	}

	receipt := &GoodsReceipt{
		PurchaseOrderLineItemID: poLine.ID,
		Quantity:                req.Quantity,
		IdempotencyKey:          key,
		Notes:                   req.Notes,
		ReceivedBy:              actor.ID,
	}
	if err := tx.Create(receipt).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to create goods receipt")
	}

	newReceived := int(received) + req.Quantity
	if err := tx.Model(&procLine).Update("received_qty", newReceived).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to update received quantity on line %d", procLine.ID)
	}

	if err := s.catalog.AdjustStock(tx, procLine.ItemRef, req.Quantity); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.purchase.RefreshReceiptStatus(tx, po.ID, actor.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.procurement.RefreshReceiptStatus(tx, procLine.ProcurementRequestID, actor.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit goods receipt")
	}

	logrus.WithFields(logrus.Fields{
		"receipt":        receipt.ID,
		"purchase_order": po.ID,
		"line_item":      poLine.ID,
		"quantity":       req.Quantity,
		"outstanding":    outstanding - req.Quantity,
	}).Info("goods receipt posted")

	return receipt, nil
}

// Get retrieves one receipt
func (s *Service) Get(id uint) (*GoodsReceipt, error) {
	var receipt GoodsReceipt
	if err := s.db.First(&receipt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("goods receipt %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to retrieve goods receipt %d", id)
	}
	return &receipt, nil
}

// ListForPurchaseOrder retrieves all receipts posted against an order
func (s *Service) ListForPurchaseOrder(poID uint) ([]GoodsReceipt, error) {
	var lineIDs []uint
	err := s.db.Model(&purchase.PurchaseOrderLineItem{}).
		Where("purchase_order_id = ?", poID).
		Pluck("id", &lineIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load line items of purchase order %d: %w", poID, err)
	}
	if len(lineIDs) == 0 {
		return []GoodsReceipt{}, nil
	}

	var receipts []GoodsReceipt
	err = s.db.
		Where("purchase_order_line_item_id IN ?", lineIDs).
		Order("created_at").
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve receipts for purchase order %d: %w", poID, err)
	}
	return receipts, nil
}

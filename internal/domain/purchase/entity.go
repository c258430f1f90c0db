// internal/domain/purchase/entity.go
package purchase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// Status represents the purchase order status
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSent              Status = "sent"
	StatusConfirmed         Status = "confirmed"
	StatusPartiallyReceived Status = "partially_received"
	StatusFullyReceived     Status = "fully_received"
	StatusCancelled         Status = "cancelled"
)

// PurchaseOrder is a supplier-facing order generated from approved
// procurement line items. Exactly one exists per (procurement request,
// supplier) pair.
type PurchaseOrder struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Code                 string          `gorm:"uniqueIndex;not null;size:20" json:"code"`
	ProcurementRequestID uint            `gorm:"not null;index;uniqueIndex:idx_po_request_supplier" json:"procurement_request_id"`
	SupplierID           uint            `gorm:"not null;index;uniqueIndex:idx_po_request_supplier" json:"supplier_id"`
	Status               Status          `gorm:"not null;size:30;default:'draft';index" json:"status"`
	OrderDate            time.Time       `gorm:"not null" json:"order_date"`
	TotalCost            decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_cost"`
	Notes                string          `gorm:"type:text" json:"notes"`
	CreatedBy            uint            `gorm:"not null;index" json:"created_by"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	LineItems     []PurchaseOrderLineItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"line_items"`
	StatusHistory []StatusHistory         `gorm:"foreignKey:PurchaseOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// PurchaseOrderLineItem is a traceability shadow of one procurement
// line item. Quantities stay on the procurement line; this record only
// ties it to a purchase order.
type PurchaseOrderLineItem struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	PurchaseOrderID       uint           `gorm:"not null;index" json:"purchase_order_id"`
	ProcurementLineItemID uint           `gorm:"not null;uniqueIndex" json:"procurement_line_item_id"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	ProcurementLineItem procurement.ProcurementLineItem `gorm:"foreignKey:ProcurementLineItemID" json:"procurement_line_item,omitempty"`
}

// StatusHistory tracks purchase order status changes for audit
type StatusHistory struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint      `gorm:"not null;index" json:"purchase_order_id"`
	Status          Status    `gorm:"not null;size:30" json:"status"`
	Comment         string    `gorm:"type:text" json:"comment"`
	CreatedBy       uint      `gorm:"index" json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Sequence is the per-month allocator row behind purchase order codes.
// Incrementing it under a row lock keeps codes unique and gapless
// within a month bucket.
type Sequence struct {
	MonthBucket string    `gorm:"primaryKey;size:4" json:"month_bucket"`
	LastValue   int       `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides
func (PurchaseOrder) TableName() string         { return "purchase_orders" }
func (PurchaseOrderLineItem) TableName() string { return "purchase_order_line_items" }
func (StatusHistory) TableName() string         { return "purchase_order_status_history" }
func (Sequence) TableName() string              { return "purchase_order_sequences" }

// CanBeEdited reports whether header fields may still change
func (po *PurchaseOrder) CanBeEdited() bool {
	return po.Status == StatusDraft || po.Status == StatusSent
}

// CanBeCancelled reports whether the order can still be cancelled
func (po *PurchaseOrder) CanBeCancelled() bool {
	return po.Status != StatusFullyReceived && po.Status != StatusCancelled
}

// CanReceive reports whether goods receipts may be posted against the
// order in its current state
func (po *PurchaseOrder) CanReceive() bool {
	return po.Status == StatusConfirmed || po.Status == StatusPartiallyReceived
}

// ComputeTotalCost recomputes the order total from the referenced
// procurement lines. Requires LineItems.ProcurementLineItem preloaded.
func (po *PurchaseOrder) ComputeTotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range po.LineItems {
		total = total.Add(po.LineItems[i].ProcurementLineItem.LineTotal())
	}
	return total
}

// DeriveReceiptStatus computes the receiving-derived status from the
// referenced procurement lines. Statuses before receiving has started
// are left unchanged.
func (po *PurchaseOrder) DeriveReceiptStatus() Status {
	switch po.Status {
	case StatusConfirmed, StatusPartiallyReceived, StatusFullyReceived:
	default:
		return po.Status
	}

	anyReceived := false
	allReceived := len(po.LineItems) > 0
	for i := range po.LineItems {
		li := &po.LineItems[i].ProcurementLineItem
		if li.ReceivedQty > 0 {
			anyReceived = true
		}
		if !li.IsFullyReceived() {
			allReceived = false
		}
	}

	switch {
	case allReceived && anyReceived:
		return StatusFullyReceived
	case anyReceived:
		return StatusPartiallyReceived
	default:
		return StatusConfirmed
	}
}

// internal/domain/receiving/entity.go
package receiving

import (
	"time"
)

// GoodsReceipt records one physical delivery against a purchase order
// line item. Receipts are immutable facts: corrections are new
// receipts, never edits, and posting one is the only operation that
// increments on-hand stock.
type GoodsReceipt struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	PurchaseOrderLineItemID uint      `gorm:"not null;index" json:"purchase_order_line_item_id"`
	Quantity                int       `gorm:"not null" json:"quantity"`
	IdempotencyKey          string    `gorm:"uniqueIndex;not null;size:36" json:"idempotency_key"`
	Notes                   string    `gorm:"type:text" json:"notes"`
	ReceivedBy              uint      `gorm:"not null;index" json:"received_by"`
	CreatedAt               time.Time `json:"created_at"`
}

// TableName overrides the table name for GoodsReceipt
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

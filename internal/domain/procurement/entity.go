// internal/domain/procurement/entity.go
package procurement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// TriggerType says what caused a procurement request to be raised
type TriggerType string

const (
	TriggerOrder        TriggerType = "order_triggered"
	TriggerReorderPoint TriggerType = "reorder_point_triggered"
)

// Status represents the approval state of a procurement request
type Status string

const (
	StatusDraft                      Status = "draft"
	StatusPendingWarehouseApproval   Status = "pending_warehouse_approval"
	StatusPendingSupplierAllocation  Status = "pending_supplier_allocation"
	StatusPendingProcurementApproval Status = "pending_procurement_approval"
	StatusPendingFinanceApproval     Status = "pending_finance_approval"
	StatusProcessed                  Status = "processed"
	StatusPartiallyReceived          Status = "partially_received"
	StatusReceived                   Status = "received"
	StatusRejected                   Status = "rejected"
	StatusCancelled                  Status = "cancelled"
)

// ProcurementRequest represents an internal requisition subject to
// multi-actor approval
type ProcurementRequest struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TriggerType     TriggerType     `gorm:"not null;size:30" json:"trigger_type"`
	Status          Status          `gorm:"not null;size:30;default:'draft';index" json:"status"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_cost"`
	SalesOrderID    *uint           `gorm:"index" json:"sales_order_id,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectedBy      *uint           `json:"rejected_by,omitempty"`
	RequestedBy     uint            `gorm:"not null;index" json:"requested_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	LineItems     []ProcurementLineItem `gorm:"foreignKey:ProcurementRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"line_items"`
	StatusHistory []StatusHistory       `gorm:"foreignKey:ProcurementRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// ProcurementLineItem is one requested item on a procurement request.
// Quantities narrow along the pipeline: requested is set at creation,
// approved at warehouse approval, received only through goods receipts.
type ProcurementLineItem struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ProcurementRequestID uint            `gorm:"not null;index" json:"procurement_request_id"`
	catalog.ItemRef      `json:"item_ref"`
	RequestedQty         int             `gorm:"not null" json:"requested_qty"`
	ApprovedQty          *int            `json:"approved_qty,omitempty"`
	ReceivedQty          int             `gorm:"not null;default:0" json:"received_qty"`
	UnitPrice            decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	SupplierID           *uint           `gorm:"index" json:"supplier_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

// StatusHistory tracks procurement request status changes for audit
type StatusHistory struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProcurementRequestID uint      `gorm:"not null;index" json:"procurement_request_id"`
	Status               Status    `gorm:"not null;size:30" json:"status"`
	Comment              string    `gorm:"type:text" json:"comment"`
	CreatedBy            uint      `gorm:"index" json:"created_by"`
	CreatedAt            time.Time `json:"created_at"`
}

// TableName overrides
func (ProcurementRequest) TableName() string  { return "procurement_requests" }
func (ProcurementLineItem) TableName() string { return "procurement_line_items" }
func (StatusHistory) TableName() string       { return "procurement_status_history" }

// EffectiveQty is the quantity the fulfillment pipeline works against:
// the approved quantity once set, the requested quantity before that.
func (li *ProcurementLineItem) EffectiveQty() int {
	if li.ApprovedQty != nil {
		return *li.ApprovedQty
	}
	return li.RequestedQty
}

// OutstandingQty is what remains to be received against this line
func (li *ProcurementLineItem) OutstandingQty() int {
	return li.EffectiveQty() - li.ReceivedQty
}

// IsFullyReceived reports whether nothing remains outstanding
func (li *ProcurementLineItem) IsFullyReceived() bool {
	return li.OutstandingQty() <= 0
}

// LineTotal is effective quantity times the unit price captured at
// request time
func (li *ProcurementLineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.EffectiveQty())))
}

// ComputeTotalCost recomputes the request total from its line items
func (r *ProcurementRequest) ComputeTotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range r.LineItems {
		total = total.Add(r.LineItems[i].LineTotal())
	}
	return total
}

// CanBeEdited reports whether line items and header fields may still
// be modified
func (r *ProcurementRequest) CanBeEdited() bool {
	switch r.Status {
	case StatusDraft,
		StatusPendingWarehouseApproval,
		StatusPendingSupplierAllocation,
		StatusPendingProcurementApproval,
		StatusPendingFinanceApproval:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (r *ProcurementRequest) IsTerminal() bool {
	return r.Status == StatusReceived || r.Status == StatusRejected || r.Status == StatusCancelled
}

// HasReceipts reports whether any line item has received stock
func (r *ProcurementRequest) HasReceipts() bool {
	for i := range r.LineItems {
		if r.LineItems[i].ReceivedQty > 0 {
			return true
		}
	}
	return false
}

// AddStatusHistory appends an audit record for a status change
func (r *ProcurementRequest) AddStatusHistory(status Status, comment string, createdBy uint) {
	r.StatusHistory = append(r.StatusHistory, StatusHistory{
		ProcurementRequestID: r.ID,
		Status:               status,
		Comment:              comment,
		CreatedBy:            createdBy,
		CreatedAt:            time.Now().UTC(),
	})
}

// internal/domain/procurement/service.go
package procurement

import (
	"errors"
	"fmt"

	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"github.com/your-org/procurement-backend/internal/pkg/dbutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles procurement request business logic
type Service struct {
	db      *gorm.DB
	catalog *catalog.Service
}

// NewService creates a new procurement service
func NewService(db *gorm.DB, catalogService *catalog.Service) *Service {
	return &Service{
		db:      db,
		catalog: catalogService,
	}
}

// CreateLineRequest represents one requested item
type CreateLineRequest struct {
	ItemType catalog.ItemType `json:"item_type" binding:"required"`
	ItemID   uint             `json:"item_id" binding:"required"`
	Quantity int              `json:"quantity" binding:"required"`
}

// CreateRequest represents procurement request creation data
type CreateRequest struct {
	TriggerType  TriggerType         `json:"trigger_type" binding:"required"`
	SalesOrderID *uint               `json:"sales_order_id,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	LineItems    []CreateLineRequest `json:"line_items" binding:"required"`
}

// UpdateRequest represents editable header fields and replacement lines
type UpdateRequest struct {
	Notes     *string             `json:"notes,omitempty"`
	LineItems []CreateLineRequest `json:"line_items,omitempty"`
}

// ApprovalRequest carries the stage-specific approval payload.
// Approved quantities are only accepted at warehouse approval,
// supplier assignments only at supplier allocation.
type ApprovalRequest struct {
	Comment             string        `json:"comment,omitempty"`
	ApprovedQuantities  map[uint]int  `json:"approved_quantities,omitempty"`
	SupplierAssignments map[uint]uint `json:"supplier_assignments,omitempty"`
}

// ListRequest represents list query parameters
type ListRequest struct {
	Page        int         `form:"page,default=1"`
	Limit       int         `form:"limit,default=20"`
	Status      Status      `form:"status"`
	TriggerType TriggerType `form:"trigger_type"`
	SortBy      string      `form:"sort_by,default=created_at"`
	SortOrder   string      `form:"sort_order,default=desc"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ListResponse represents the paginated list envelope
type ListResponse struct {
	Requests   []ProcurementRequest `json:"requests"`
	Pagination Pagination           `json:"pagination"`
}

// Create creates a new procurement request in draft
func (s *Service) Create(actor Actor, req *CreateRequest) (*ProcurementRequest, error) {
	if req.TriggerType != TriggerOrder && req.TriggerType != TriggerReorderPoint {
		return nil, apperror.ValidationField("trigger_type", "unknown trigger type %q", req.TriggerType)
	}
	if len(req.LineItems) == 0 {
		return nil, apperror.ValidationField("line_items", "at least one line item is required")
	}

	lines, err := s.buildLineItems(req.LineItems)
	if err != nil {
		return nil, err
	}

	request := &ProcurementRequest{
		TriggerType:  req.TriggerType,
		Status:       StatusDraft,
		SalesOrderID: req.SalesOrderID,
		Notes:        req.Notes,
		RequestedBy:  actor.ID,
		LineItems:    lines,
	}
	request.TotalCost = request.ComputeTotalCost()
	request.AddStatusHistory(StatusDraft, "created", actor.ID)

	if err := s.db.Create(request).Error; err != nil {
		return nil, apperror.Persistence(err, "failed to create procurement request")
	}

	return request, nil
}

// buildLineItems resolves item references and captures the unit price
// at time of request
func (s *Service) buildLineItems(reqLines []CreateLineRequest) ([]ProcurementLineItem, error) {
	lines := make([]ProcurementLineItem, 0, len(reqLines))
	for _, l := range reqLines {
		if l.Quantity <= 0 {
			return nil, apperror.ValidationField("quantity", "requested quantity must be positive")
		}
		ref := catalog.ItemRef{ItemType: l.ItemType, ItemID: l.ItemID}
		item, err := s.catalog.Resolve(ref)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ProcurementLineItem{
			ItemRef:      ref,
			RequestedQty: l.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}
	return lines, nil
}

// Get retrieves one procurement request with its lines and history
func (s *Service) Get(id uint) (*ProcurementRequest, error) {
	var request ProcurementRequest
	err := s.db.
		Preload("LineItems").
		Preload("StatusHistory").
		First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("procurement request %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to retrieve procurement request %d", id)
	}
	return &request, nil
}

// List retrieves procurement requests with filtering and pagination
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&ProcurementRequest{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.TriggerType != "" {
		query = query.Where("trigger_type = ?", req.TriggerType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count procurement requests: %w", err)
	}

	sortOrder := "desc"
	if req.SortOrder == "asc" {
		sortOrder = "asc"
	}
	sortBy := "created_at"
	switch req.SortBy {
	case "created_at", "updated_at", "status", "total_cost":
		sortBy = req.SortBy
	}

	var requests []ProcurementRequest
	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("LineItems").
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset(offset).
		Limit(req.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve procurement requests: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Requests: requests,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Update modifies header fields or replaces line items. Permitted only
// while the request is editable.
func (s *Service) Update(id uint, actor Actor, req *UpdateRequest) (*ProcurementRequest, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, err := s.lockRequest(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !request.CanBeEdited() {
		tx.Rollback()
		return nil, apperror.StateTransition("request %d is not editable in status %s", id, request.Status)
	}

	if req.Notes != nil {
		request.Notes = *req.Notes
	}

	if len(req.LineItems) > 0 {
		lines, err := s.buildLineItems(req.LineItems)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Where("procurement_request_id = ?", id).Delete(&ProcurementLineItem{}).Error; err != nil {
			tx.Rollback()
			return nil, apperror.Persistence(err, "failed to replace line items")
		}
		for i := range lines {
			lines[i].ProcurementRequestID = id
		}
		if err := tx.Create(&lines).Error; err != nil {
			tx.Rollback()
			return nil, apperror.Persistence(err, "failed to replace line items")
		}
		request.LineItems = lines
	}

	request.TotalCost = request.ComputeTotalCost()
	if err := tx.Omit(clause.Associations).Save(request).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to update procurement request %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit update")
	}
	return request, nil
}

// Approve advances the request one stage along the approval chain,
// applying the stage-specific payload.
func (s *Service) Approve(id uint, actor Actor, req *ApprovalRequest) (*ProcurementRequest, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, err := s.lockRequest(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.applyStagePayload(tx, request, req); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := Advance(request, actor); err != nil {
		tx.Rollback()
		return nil, err
	}

	request.TotalCost = request.ComputeTotalCost()
	if err := tx.Omit(clause.Associations).Save(request).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to save procurement request %d", id)
	}

	history := StatusHistory{
		ProcurementRequestID: request.ID,
		Status:               request.Status,
		Comment:              req.Comment,
		CreatedBy:            actor.ID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to record status history for request %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit approval")
	}
	return request, nil
}

// applyStagePayload validates and applies approved quantities or
// supplier assignments depending on the current stage
func (s *Service) applyStagePayload(tx *gorm.DB, request *ProcurementRequest, req *ApprovalRequest) error {
	if len(req.ApprovedQuantities) > 0 && request.Status != StatusPendingWarehouseApproval {
		return apperror.Validation("approved quantities may only be set at warehouse approval")
	}
	if len(req.SupplierAssignments) > 0 && request.Status != StatusPendingSupplierAllocation {
		return apperror.Validation("supplier assignments may only be set at supplier allocation")
	}

	switch request.Status {
	case StatusPendingWarehouseApproval:
		for i := range request.LineItems {
			li := &request.LineItems[i]
			qty, ok := req.ApprovedQuantities[li.ID]
			if !ok {
				qty = li.RequestedQty
			}
			if qty < 0 {
				return apperror.QuantityConstraint("approved quantity for line %d must not be negative", li.ID)
			}
			if qty > li.RequestedQty {
				return apperror.QuantityConstraint("approved quantity %d exceeds requested quantity %d on line %d", qty, li.RequestedQty, li.ID)
			}
			approved := qty
			li.ApprovedQty = &approved
			if err := tx.Model(li).Update("approved_qty", approved).Error; err != nil {
				return apperror.Persistence(err, "failed to save approved quantity for line %d", li.ID)
			}
		}
	case StatusPendingSupplierAllocation:
		for i := range request.LineItems {
			li := &request.LineItems[i]
			supplierID, ok := req.SupplierAssignments[li.ID]
			if !ok {
				if li.SupplierID == nil {
					return apperror.ValidationField("supplier_assignments", "line %d has no supplier assigned", li.ID)
				}
				continue
			}
			if _, err := s.catalog.GetSupplier(supplierID); err != nil {
				return err
			}
			assigned := supplierID
			li.SupplierID = &assigned
			if err := tx.Model(li).Update("supplier_id", assigned).Error; err != nil {
				return apperror.Persistence(err, "failed to save supplier for line %d", li.ID)
			}
		}
	}
	return nil
}

// Reject rejects a pending request with a mandatory reason
func (s *Service) Reject(id uint, actor Actor, reason string) (*ProcurementRequest, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, err := s.lockRequest(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := Reject(request, actor, reason); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Omit(clause.Associations).Save(request).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to save procurement request %d", id)
	}

	history := StatusHistory{
		ProcurementRequestID: request.ID,
		Status:               StatusRejected,
		Comment:              reason,
		CreatedBy:            actor.ID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to record status history for request %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit rejection")
	}
	return request, nil
}

// Cancel cancels a non-terminal request with no receipts posted
func (s *Service) Cancel(id uint, actor Actor) (*ProcurementRequest, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, err := s.lockRequest(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := Cancel(request, actor); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Omit(clause.Associations).Save(request).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to save procurement request %d", id)
	}

	history := StatusHistory{
		ProcurementRequestID: request.ID,
		Status:               StatusCancelled,
		CreatedBy:            actor.ID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to record status history for request %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit cancellation")
	}
	return request, nil
}

// Delete soft-deletes a request. Forbidden once anything has been
// received against it.
func (s *Service) Delete(id uint, actor Actor) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, err := s.lockRequest(tx, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	if request.HasReceipts() {
		tx.Rollback()
		return apperror.StateTransition("request %d cannot be deleted once goods have been received", id)
	}

	if err := tx.Where("procurement_request_id = ?", id).Delete(&ProcurementLineItem{}).Error; err != nil {
		tx.Rollback()
		return apperror.Persistence(err, "failed to delete line items of request %d", id)
	}
	if err := tx.Delete(request).Error; err != nil {
		tx.Rollback()
		return apperror.Persistence(err, "failed to delete procurement request %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return apperror.Persistence(err, "failed to commit deletion")
	}
	return nil
}

// RefreshReceiptStatus recomputes the derived received status inside
// the caller's transaction. Invoked by receipt posting after line
// quantities change.
func (s *Service) RefreshReceiptStatus(tx *gorm.DB, requestID uint, actorID uint) error {
	var request ProcurementRequest
	if err := tx.Preload("LineItems").First(&request, requestID).Error; err != nil {
		return apperror.Referential("procurement request %d not found", requestID)
	}

	derived := DeriveReceiptStatus(&request)
	if derived == request.Status {
		return nil
	}

	if err := tx.Model(&request).Update("status", derived).Error; err != nil {
		return apperror.Persistence(err, "failed to update status of request %d", requestID)
	}
	history := StatusHistory{
		ProcurementRequestID: requestID,
		Status:               derived,
		Comment:              "derived from goods receipt",
		CreatedBy:            actorID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return apperror.Persistence(err, "failed to record status history for request %d", requestID)
	}
	return nil
}

// lockRequest loads a request with its lines under a row lock
func (s *Service) lockRequest(tx *gorm.DB, id uint) (*ProcurementRequest, error) {
	var request ProcurementRequest
	err := dbutil.ForUpdate(tx).
		Preload("LineItems").
		First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("procurement request %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to load procurement request %d", id)
	}
	return &request, nil
}

// internal/domain/purchase/service.go
package purchase

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/procurement-backend/internal/domain/catalog"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/domain/user"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"github.com/your-org/procurement-backend/internal/pkg/dbutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles purchase order business logic
type Service struct {
	db      *gorm.DB
	catalog *catalog.Service
}

// NewService creates a new purchase order service
func NewService(db *gorm.DB, catalogService *catalog.Service) *Service {
	return &Service{
		db:      db,
		catalog: catalogService,
	}
}

// ListRequest represents list query parameters
type ListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	Status     Status `form:"status"`
	SupplierID uint   `form:"supplier_id"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
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
	Orders     []PurchaseOrder `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

// GenerateFromRequest creates purchase orders for a processed
// procurement request, one per assigned supplier. Supplier groups that
// already have an order are left untouched, so regeneration never
// duplicates; the full set of orders for the request is returned.
func (s *Service) GenerateFromRequest(requestID uint, actor procurement.Actor) ([]PurchaseOrder, error) {
	if actor.Role != user.RoleProcurement && actor.Role != user.RoleAdmin {
		return nil, apperror.StateTransition("role %s may not generate purchase orders", actor.Role)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var request procurement.ProcurementRequest
	err := dbutil.ForUpdate(tx).Preload("LineItems").First(&request, requestID).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("procurement request %d not found", requestID)
		}
		return nil, apperror.Persistence(err, "failed to load procurement request %d", requestID)
	}

	if request.Status != procurement.StatusProcessed &&
		request.Status != procurement.StatusPartiallyReceived {
		tx.Rollback()
		return nil, apperror.StateTransition("purchase orders can only be generated for a processed request, got status %s", request.Status)
	}

	groups, err := groupBySupplier(request.LineItems)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var existing []PurchaseOrder
	if err := tx.Where("procurement_request_id = ?", requestID).Find(&existing).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to load purchase orders for request %d", requestID)
	}
	covered := make(map[uint]bool, len(existing))
	for _, po := range existing {
		covered[po.SupplierID] = true
	}

	now := time.Now().UTC()
	for _, group := range groups {
		if covered[group.supplierID] {
			continue
		}
		if _, err := s.catalog.GetSupplier(group.supplierID); err != nil {
			tx.Rollback()
			return nil, err
		}

		code, err := AllocateCode(tx, now)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		po := PurchaseOrder{
			Code:                 code,
			ProcurementRequestID: requestID,
			SupplierID:           group.supplierID,
			Status:               StatusDraft,
			OrderDate:            now,
			CreatedBy:            actor.ID,
		}
		for _, li := range group.lines {
			po.LineItems = append(po.LineItems, PurchaseOrderLineItem{
				ProcurementLineItemID: li.ID,
			})
			po.TotalCost = po.TotalCost.Add(li.LineTotal())
		}
		po.StatusHistory = append(po.StatusHistory, StatusHistory{
			Status:    StatusDraft,
			Comment:   "generated",
			CreatedBy: actor.ID,
		})

		if err := tx.Create(&po).Error; err != nil {
			tx.Rollback()
			return nil, apperror.Persistence(err, "failed to create purchase order for supplier %d", group.supplierID)
		}
	}

	var orders []PurchaseOrder
	err = tx.
		Preload("LineItems.ProcurementLineItem").
		Where("procurement_request_id = ?", requestID).
		Order("id").
		Find(&orders).Error
	if err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to reload purchase orders for request %d", requestID)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit purchase order generation")
	}
	return orders, nil
}

type supplierGroup struct {
	supplierID uint
	lines      []procurement.ProcurementLineItem
}

// groupBySupplier partitions approved lines by their assigned supplier.
// Lines approved to zero are excluded; a line without a supplier fails
// the whole generation.
func groupBySupplier(lines []procurement.ProcurementLineItem) ([]supplierGroup, error) {
	bySupplier := make(map[uint][]procurement.ProcurementLineItem)
	for _, li := range lines {
		if li.EffectiveQty() <= 0 {
			continue
		}
		if li.SupplierID == nil {
			return nil, apperror.ValidationField("supplier_id", "line %d has no supplier assigned", li.ID)
		}
		bySupplier[*li.SupplierID] = append(bySupplier[*li.SupplierID], li)
	}
	if len(bySupplier) == 0 {
		return nil, apperror.Validation("no approved line items to order")
	}

	groups := make([]supplierGroup, 0, len(bySupplier))
	for supplierID, group := range bySupplier {
		groups = append(groups, supplierGroup{supplierID: supplierID, lines: group})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].supplierID < groups[j].supplierID })
	return groups, nil
}

// Get retrieves one purchase order with its lines and history
func (s *Service) Get(id uint) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := s.db.
		Preload("LineItems.ProcurementLineItem").
		Preload("StatusHistory").
		First(&po, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("purchase order %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to retrieve purchase order %d", id)
	}

	s.assertTotal(&po)
	return &po, nil
}

// assertTotal recomputes the total from the referenced procurement
// lines and reconciles the stored cache when they disagree
func (s *Service) assertTotal(po *PurchaseOrder) {
	computed := po.ComputeTotalCost()
	if computed.Equal(po.TotalCost) {
		return
	}
	logrus.WithFields(logrus.Fields{
		"purchase_order": po.ID,
		"cached_total":   po.TotalCost,
		"computed_total": computed,
	}).Warn("purchase order total cache out of sync, reconciling")
	po.TotalCost = computed
	s.db.Model(po).Update("total_cost", computed)
}

// List retrieves purchase orders with filtering and pagination
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&PurchaseOrder{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.SupplierID != 0 {
		query = query.Where("supplier_id = ?", req.SupplierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count purchase orders: %w", err)
	}

	sortOrder := "desc"
	if req.SortOrder == "asc" {
		sortOrder = "asc"
	}
	sortBy := "created_at"
	switch req.SortBy {
	case "created_at", "updated_at", "status", "order_date", "code":
		sortBy = req.SortBy
	}

	var orders []PurchaseOrder
	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("LineItems.ProcurementLineItem").
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve purchase orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
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

// Send moves a draft order to sent
func (s *Service) Send(id uint, actor procurement.Actor) (*PurchaseOrder, error) {
	return s.transition(id, actor, StatusDraft, StatusSent, "sent to supplier")
}

// Confirm moves a sent order to confirmed
func (s *Service) Confirm(id uint, actor procurement.Actor) (*PurchaseOrder, error) {
	return s.transition(id, actor, StatusSent, StatusConfirmed, "confirmed by supplier")
}

// transition performs a guarded single-step status change
func (s *Service) transition(id uint, actor procurement.Actor, from, to Status, comment string) (*PurchaseOrder, error) {
	if actor.Role != user.RoleProcurement && actor.Role != user.RoleAdmin {
		return nil, apperror.StateTransition("role %s may not update purchase orders", actor.Role)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	po, err := s.lockOrder(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if po.Status != from {
		tx.Rollback()
		return nil, apperror.StateTransition("purchase order %d cannot move from %s to %s", id, po.Status, to)
	}

	po.Status = to
	if err := tx.Omit(clause.Associations).Save(po).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to save purchase order %d", id)
	}

	history := StatusHistory{PurchaseOrderID: id, Status: to, Comment: comment, CreatedBy: actor.ID}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to record status history for purchase order %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit status change")
	}
	return po, nil
}

// Cancel cancels an order unless it is fully received or already
// cancelled. Cancellation only blocks future transitions; receipts
// already posted stay on the books.
func (s *Service) Cancel(id uint, actor procurement.Actor) (*PurchaseOrder, error) {
	if actor.Role != user.RoleProcurement && actor.Role != user.RoleAdmin {
		return nil, apperror.StateTransition("role %s may not cancel purchase orders", actor.Role)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	po, err := s.lockOrder(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !po.CanBeCancelled() {
		tx.Rollback()
		return nil, apperror.StateTransition("purchase order %d cannot be cancelled in status %s", id, po.Status)
	}

	po.Status = StatusCancelled
	if err := tx.Omit(clause.Associations).Save(po).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to save purchase order %d", id)
	}

	history := StatusHistory{PurchaseOrderID: id, Status: StatusCancelled, CreatedBy: actor.ID}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperror.Persistence(err, "failed to record status history for purchase order %d", id)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperror.Persistence(err, "failed to commit cancellation")
	}
	return po, nil
}

// RefreshReceiptStatus recomputes the receiving-derived status inside
// the caller's transaction. Invoked by receipt posting.
func (s *Service) RefreshReceiptStatus(tx *gorm.DB, poID uint, actorID uint) error {
	po, err := s.lockOrder(tx, poID)
	if err != nil {
		return err
	}

	derived := po.DeriveReceiptStatus()
	if derived == po.Status {
		return nil
	}

	if err := tx.Model(&PurchaseOrder{}).Where("id = ?", poID).Update("status", derived).Error; err != nil {
		return apperror.Persistence(err, "failed to update status of purchase order %d", poID)
	}
	history := StatusHistory{
		PurchaseOrderID: poID,
		Status:          derived,
		Comment:         "derived from goods receipt",
		CreatedBy:       actorID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return apperror.Persistence(err, "failed to record status history for purchase order %d", poID)
	}
	return nil
}

// lockOrder loads an order with its lines under a row lock
func (s *Service) lockOrder(tx *gorm.DB, id uint) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := dbutil.ForUpdate(tx).
		Preload("LineItems.ProcurementLineItem").
		First(&po, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Referential("purchase order %d not found", id)
		}
		return nil, apperror.Persistence(err, "failed to load purchase order %d", id)
	}
	return &po, nil
}

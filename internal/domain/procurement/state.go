// internal/domain/procurement/state.go
package procurement

import (
	"github.com/your-org/procurement-backend/internal/domain/user"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
)

// Actor is the identity attempting a transition
type Actor struct {
	ID   uint
	Role user.Role
}

// approvalStages maps each approval state to its successor and the
// role allowed to advance past it. The chain is the whole forward path
// of the state machine; rejected/cancelled are handled separately.
type stage struct {
	next  Status
	guard user.Role
}

var approvalStages = map[Status]stage{
	StatusDraft:                      {next: StatusPendingWarehouseApproval, guard: user.RoleRequester},
	StatusPendingWarehouseApproval:   {next: StatusPendingSupplierAllocation, guard: user.RoleWarehouse},
	StatusPendingSupplierAllocation:  {next: StatusPendingProcurementApproval, guard: user.RoleProcurement},
	StatusPendingProcurementApproval: {next: StatusPendingFinanceApproval, guard: user.RoleProcurement},
	StatusPendingFinanceApproval:     {next: StatusProcessed, guard: user.RoleFinance},
}

// IsPending reports whether s is one of the pending approval states
func IsPending(s Status) bool {
	switch s {
	case StatusPendingWarehouseApproval,
		StatusPendingSupplierAllocation,
		StatusPendingProcurementApproval,
		StatusPendingFinanceApproval:
		return true
	}
	return false
}

// NextStage returns the successor state and guard role for the current
// state, or false if the state has no forward transition.
func NextStage(from Status) (Status, user.Role, bool) {
	st, ok := approvalStages[from]
	if !ok {
		return "", "", false
	}
	return st.next, st.guard, true
}

// Advance validates and performs the forward transition from the
// request's current state. Admin actors bypass the role guard.
func Advance(r *ProcurementRequest, actor Actor) error {
	next, guard, ok := NextStage(r.Status)
	if !ok {
		return apperror.StateTransition("request %d cannot advance from status %s", r.ID, r.Status)
	}
	if actor.Role != guard && actor.Role != user.RoleAdmin {
		return apperror.StateTransition("role %s may not advance a request in status %s", actor.Role, r.Status)
	}
	r.Status = next
	return nil
}

// Reject moves a pending request to rejected. A reason and the
// rejecting actor are mandatory.
func Reject(r *ProcurementRequest, actor Actor, reason string) error {
	if !IsPending(r.Status) {
		return apperror.StateTransition("request %d cannot be rejected from status %s", r.ID, r.Status)
	}
	if reason == "" {
		return apperror.ValidationField("reason", "rejection reason is required")
	}
	_, guard, _ := NextStage(r.Status)
	if actor.Role != guard && actor.Role != user.RoleAdmin {
		return apperror.StateTransition("role %s may not reject a request in status %s", actor.Role, r.Status)
	}

	r.Status = StatusRejected
	r.RejectionReason = reason
	r.RejectedBy = &actor.ID
	return nil
}

// Cancel moves any non-terminal request with no receipts to cancelled
func Cancel(r *ProcurementRequest, actor Actor) error {
	if r.IsTerminal() {
		return apperror.StateTransition("request %d is already in terminal status %s", r.ID, r.Status)
	}
	if r.HasReceipts() {
		return apperror.StateTransition("request %d cannot be cancelled once goods have been received", r.ID)
	}
	r.Status = StatusCancelled
	return nil
}

// DeriveReceiptStatus computes the received/partially_received status
// from the line items. It only applies once the request is processed;
// the receipt states are never set directly by callers.
func DeriveReceiptStatus(r *ProcurementRequest) Status {
	switch r.Status {
	case StatusProcessed, StatusPartiallyReceived, StatusReceived:
	default:
		return r.Status
	}

	anyReceived := false
	allReceived := len(r.LineItems) > 0
	for i := range r.LineItems {
		li := &r.LineItems[i]
		if li.ReceivedQty > 0 {
			anyReceived = true
		}
		if !li.IsFullyReceived() {
			allReceived = false
		}
	}

	switch {
	case allReceived && anyReceived:
		return StatusReceived
	case anyReceived:
		return StatusPartiallyReceived
	default:
		return StatusProcessed
	}
}

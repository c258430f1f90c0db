// internal/domain/procurement/state_test.go
package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/domain/user"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
)

func actor(role user.Role) Actor {
	return Actor{ID: 1, Role: role}
}

func TestAdvanceFullApprovalChain(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusDraft}

	steps := []struct {
		role user.Role
		next Status
	}{
		{user.RoleRequester, StatusPendingWarehouseApproval},
		{user.RoleWarehouse, StatusPendingSupplierAllocation},
		{user.RoleProcurement, StatusPendingProcurementApproval},
		{user.RoleProcurement, StatusPendingFinanceApproval},
		{user.RoleFinance, StatusProcessed},
	}

	for _, step := range steps {
		require.NoError(t, Advance(r, actor(step.role)))
		assert.Equal(t, step.next, r.Status)
	}
}

func TestAdvanceRejectsWrongRole(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusPendingWarehouseApproval}

	err := Advance(r, actor(user.RoleFinance))
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))
	assert.Equal(t, StatusPendingWarehouseApproval, r.Status)
}

func TestAdvanceAdminBypassesGuards(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusDraft}

	for r.Status != StatusProcessed {
		require.NoError(t, Advance(r, actor(user.RoleAdmin)))
	}
}

func TestAdvanceFromTerminalOrProcessed(t *testing.T) {
	for _, status := range []Status{StatusProcessed, StatusRejected, StatusCancelled, StatusReceived} {
		r := &ProcurementRequest{ID: 1, Status: status}
		err := Advance(r, actor(user.RoleAdmin))
		assert.True(t, apperror.IsKind(err, apperror.KindStateTransition), "status %s", status)
	}
}

func TestRejectRequiresPendingStatus(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusDraft}

	err := Reject(r, actor(user.RoleWarehouse), "not needed")
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))
}

func TestRejectRequiresReason(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusPendingFinanceApproval}

	err := Reject(r, actor(user.RoleFinance), "")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, StatusPendingFinanceApproval, r.Status)
}

func TestRejectByStageGuard(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusPendingFinanceApproval}

	err := Reject(r, actor(user.RoleWarehouse), "budget exceeded")
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))

	rejector := Actor{ID: 42, Role: user.RoleFinance}
	require.NoError(t, Reject(r, rejector, "budget exceeded"))
	assert.Equal(t, StatusRejected, r.Status)
	assert.Equal(t, "budget exceeded", r.RejectionReason)
	require.NotNil(t, r.RejectedBy)
	assert.Equal(t, uint(42), *r.RejectedBy)
}

func TestCancelTerminalRequest(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusRejected}

	err := Cancel(r, actor(user.RoleAdmin))
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))
}

func TestCancelWithReceipts(t *testing.T) {
	r := &ProcurementRequest{
		ID:     1,
		Status: StatusProcessed,
		LineItems: []ProcurementLineItem{
			{RequestedQty: 10, ReceivedQty: 4},
		},
	}

	err := Cancel(r, actor(user.RoleAdmin))
	assert.True(t, apperror.IsKind(err, apperror.KindStateTransition))
	assert.Equal(t, StatusProcessed, r.Status)
}

func TestCancelPendingRequest(t *testing.T) {
	r := &ProcurementRequest{ID: 1, Status: StatusPendingSupplierAllocation}

	require.NoError(t, Cancel(r, actor(user.RoleRequester)))
	assert.Equal(t, StatusCancelled, r.Status)
}

func TestDeriveReceiptStatus(t *testing.T) {
	approved := func(qty int) *int { return &qty }

	tests := []struct {
		name     string
		request  ProcurementRequest
		expected Status
	}{
		{
			name: "nothing received stays processed",
			request: ProcurementRequest{Status: StatusProcessed, LineItems: []ProcurementLineItem{
				{RequestedQty: 10},
			}},
			expected: StatusProcessed,
		},
		{
			name: "partial receipt",
			request: ProcurementRequest{Status: StatusProcessed, LineItems: []ProcurementLineItem{
				{RequestedQty: 10, ReceivedQty: 4},
				{RequestedQty: 5},
			}},
			expected: StatusPartiallyReceived,
		},
		{
			name: "all lines fully received",
			request: ProcurementRequest{Status: StatusPartiallyReceived, LineItems: []ProcurementLineItem{
				{RequestedQty: 10, ReceivedQty: 10},
				{RequestedQty: 5, ApprovedQty: approved(3), ReceivedQty: 3},
			}},
			expected: StatusReceived,
		},
		{
			name: "approved quantity bounds completion",
			request: ProcurementRequest{Status: StatusProcessed, LineItems: []ProcurementLineItem{
				{RequestedQty: 10, ApprovedQty: approved(6), ReceivedQty: 6},
			}},
			expected: StatusReceived,
		},
		{
			name:     "draft untouched",
			request:  ProcurementRequest{Status: StatusDraft, LineItems: []ProcurementLineItem{{RequestedQty: 1}}},
			expected: StatusDraft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveReceiptStatus(&tt.request))
		})
	}
}

func TestEffectiveAndOutstandingQty(t *testing.T) {
	li := ProcurementLineItem{RequestedQty: 10}
	assert.Equal(t, 10, li.EffectiveQty())
	assert.Equal(t, 10, li.OutstandingQty())
	assert.False(t, li.IsFullyReceived())

	approved := 6
	li.ApprovedQty = &approved
	li.ReceivedQty = 4
	assert.Equal(t, 6, li.EffectiveQty())
	assert.Equal(t, 2, li.OutstandingQty())

	li.ReceivedQty = 6
	assert.True(t, li.IsFullyReceived())
}

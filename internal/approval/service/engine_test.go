package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/erpcore/backend/internal/approval"
	"github.com/erpcore/backend/internal/approval/model"
)

const testTenant = "tenant-1"

func strPtr(s string) *string { return &s }

func userStep(order int, userID string) model.ApprovalStep {
	return model.ApprovalStep{
		StepOrder:    order,
		Name:         "step",
		ApproverType: model.ApproverTypeUser,
		ApproverID:   strPtr(userID),
	}
}

func sequentialFlow(steps ...model.ApprovalStep) *model.ApprovalFlow {
	flow := &model.ApprovalFlow{
		TenantID: testTenant,
		Name:     "purchase approval",
		FlowType: model.FlowTypeSequential,
		Steps:    steps,
	}
	flow.ID = uuid.New()
	return flow
}

func pendingRequest(flow *model.ApprovalFlow) *model.ApprovalRequest {
	request := &model.ApprovalRequest{
		TenantID:    testTenant,
		FlowID:      flow.ID,
		Title:       "PO-1001",
		EntityType:  "order",
		EntityID:    "order-1",
		Status:      model.RequestStatusPending,
		CurrentStep: 1,
		RequestedBy: "requester",
		RequestedAt: time.Now().UTC(),
	}
	request.ID = uuid.New()
	return request
}

func TestSequentialApprovalAdvancesThenFinalizes(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"), userStep(2, "bob"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
	assert.Equal(t, 2, updated.CurrentStep)
	assert.Nil(t, updated.CompletedAt)

	updated, err = engine.ProcessApproval(context.Background(), request, "bob", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	store.AssertNumberOfCalls(t, "CreateAction", 2)
	store.AssertNumberOfCalls(t, "UpdateRequestCAS", 2)
}

func TestRejectTerminatesImmediately(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"), userStep(2, "bob"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeReject, model.ActionContext{Comment: "over budget"})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, 1, updated.CurrentStep)
}

func TestConditionalSkipJumpsPastStep(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"), userStep(2, "bob"), userStep(3, "carol"))
	flow.Conditions = model.ConditionMap{
		"step_2": map[string]any{
			"amount": map[string]any{"operator": "lt", "value": 1000},
		},
	}
	request := pendingRequest(flow)
	request.RequestMetadata = map[string]any{"amount": 500.0}

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, 3, updated.CurrentStep)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
}

func TestConditionalSkipFinalizesWhenNoStepSurvives(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"), userStep(2, "bob"))
	flow.Conditions = model.ConditionMap{
		"step_2": map[string]any{
			"amount": map[string]any{"operator": "lt", "value": 1000},
		},
	}
	request := pendingRequest(flow)
	request.RequestMetadata = map[string]any{"amount": 500.0}

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestParallelQuorumWaitsForMinApprovals(t *testing.T) {
	step := userStep(1, "alice")
	step.MinApprovals = 2
	flow := sequentialFlow(step)
	flow.FlowType = model.FlowTypeParallel
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("CountDistinctApprovers", mock.Anything, request.ID, 1).Return(int64(1), nil).Once()

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
	assert.Equal(t, 1, updated.CurrentStep)
	store.AssertNotCalled(t, "UpdateRequestCAS", mock.Anything, mock.Anything)

	// Second, distinct approver meets the quorum and finalizes.
	store.On("CountDistinctApprovers", mock.Anything, request.ID, 1).Return(int64(2), nil).Once()
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	updated, err = engine.ProcessApproval(context.Background(), request, "bob", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestParallelRequireAllCompletesOnFirstApproval(t *testing.T) {
	// With no approver roster to enumerate, require_all behaves as a quorum
	// of one: the first recorded approval completes the step.
	step := userStep(1, "alice")
	step.RequireAll = true
	flow := sequentialFlow(step)
	flow.FlowType = model.FlowTypeParallel
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("CountDistinctApprovers", mock.Anything, request.ID, 1).Return(int64(1), nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestProcessApprovalRejectsTerminalRequest(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)
	now := time.Now().UTC()
	request.Status = model.RequestStatusApproved
	request.CompletedAt = &now

	store := new(MockStore)
	engine := NewFlowEngine(store, new(MockRoleChecker))

	_, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.ErrorIs(t, err, approval.ErrInvalidTransition)
	store.AssertNotCalled(t, "CreateAction", mock.Anything, mock.Anything)
}

func TestProcessApprovalFlowNotFound(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(nil, approval.ErrFlowNotFound)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	_, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.ErrorIs(t, err, approval.ErrFlowNotFound)
}

func TestProcessApprovalCurrentStepMissing(t *testing.T) {
	flow := sequentialFlow(userStep(2, "bob")) // no step with order 1
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	_, err := engine.ProcessApproval(context.Background(), request, "bob", model.ActionTypeApprove, model.ActionContext{})
	assert.ErrorIs(t, err, approval.ErrCurrentStepNotFound)
}

func TestProcessApprovalConcurrentConflict(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)
	store.On("UpdateRequestCAS", mock.Anything, request).Return(approval.ErrConcurrentUpdate)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	_, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeApprove, model.ActionContext{})
	assert.ErrorIs(t, err, approval.ErrConcurrentUpdate)
}

func TestCommentIsRecordedWithoutTransition(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("GetFlowByID", mock.Anything, testTenant, flow.ID).Return(flow, nil)
	store.On("CreateAction", mock.Anything, mock.AnythingOfType("*model.ApprovalAction")).Return(nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	updated, err := engine.ProcessApproval(context.Background(), request, "alice", model.ActionTypeComment, model.ActionContext{Comment: "looks fine"})
	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
	assert.Equal(t, 1, updated.CurrentStep)
	store.AssertNotCalled(t, "UpdateRequestCAS", mock.Anything, mock.Anything)
}

func TestCanApproveUserStep(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("ListDelegations", mock.Anything, request.ID).Return([]model.ApprovalDelegation{}, nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	ok, err := engine.CanApprove(context.Background(), request, "alice", flow)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.CanApprove(context.Background(), request, "mallory", flow)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanApproveRoleStep(t *testing.T) {
	step := model.ApprovalStep{
		StepOrder:    1,
		ApproverType: model.ApproverTypeRole,
		ApproverRole: strPtr("finance_manager"),
	}
	flow := sequentialFlow(step)
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("ListDelegations", mock.Anything, request.ID).Return([]model.ApprovalDelegation{}, nil)
	roles := new(MockRoleChecker)
	roles.On("HasRole", mock.Anything, "alice", "finance_manager", testTenant).Return(true, nil)
	roles.On("HasRole", mock.Anything, "bob", "finance_manager", testTenant).Return(false, nil)

	engine := NewFlowEngine(store, roles)

	ok, err := engine.CanApprove(context.Background(), request, "alice", flow)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.CanApprove(context.Background(), request, "bob", flow)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanApproveDynamicStepDeniesEveryone(t *testing.T) {
	step := model.ApprovalStep{
		StepOrder:    1,
		ApproverType: model.ApproverTypeDynamic,
		ApproverRule: []byte(`{"type":"department_head"}`),
	}
	flow := sequentialFlow(step)
	request := pendingRequest(flow)

	store := new(MockStore)
	store.On("ListDelegations", mock.Anything, request.ID).Return([]model.ApprovalDelegation{}, nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	ok, err := engine.CanApprove(context.Background(), request, "anyone", flow)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanApproveHonorsActiveDelegation(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	delegation := model.ApprovalDelegation{
		RequestID:  request.ID,
		FromUserID: "alice",
		ToUserID:   "dave",
		IsActive:   true,
	}

	store := new(MockStore)
	store.On("ListDelegations", mock.Anything, request.ID).Return([]model.ApprovalDelegation{delegation}, nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	ok, err := engine.CanApprove(context.Background(), request, "dave", flow)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCanApproveIgnoresExpiredOrRevokedDelegation(t *testing.T) {
	flow := sequentialFlow(userStep(1, "alice"))
	request := pendingRequest(flow)

	expired := time.Now().UTC().Add(-time.Hour)
	delegations := []model.ApprovalDelegation{
		{RequestID: request.ID, FromUserID: "alice", ToUserID: "dave", IsActive: true, ExpiresAt: &expired},
		{RequestID: request.ID, FromUserID: "alice", ToUserID: "erin", IsActive: false},
	}

	store := new(MockStore)
	store.On("ListDelegations", mock.Anything, request.ID).Return(delegations, nil)

	engine := NewFlowEngine(store, new(MockRoleChecker))

	ok, err := engine.CanApprove(context.Background(), request, "dave", flow)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.CanApprove(context.Background(), request, "erin", flow)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanApproveNoCurrentStep(t *testing.T) {
	flow := sequentialFlow(userStep(2, "bob"))
	request := pendingRequest(flow) // points at step 1 which does not exist

	engine := NewFlowEngine(new(MockStore), new(MockRoleChecker))

	ok, err := engine.CanApprove(context.Background(), request, "bob", flow)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetNextStepOrdersAndSkips(t *testing.T) {
	// Orders are not necessarily contiguous.
	flow := sequentialFlow(userStep(1, "a"), userStep(5, "b"), userStep(10, "c"))
	flow.Conditions = model.ConditionMap{
		"step_5": map[string]any{
			"entity_type": []any{"order"},
		},
	}
	request := pendingRequest(flow)

	engine := NewFlowEngine(new(MockStore), new(MockRoleChecker))

	next := engine.GetNextStep(request, flow)
	assert.NotNil(t, next)
	assert.Equal(t, 10, next.StepOrder)
}

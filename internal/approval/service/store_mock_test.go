package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/erpcore/backend/internal/approval/model"
)

// MockStore is a mock implementation of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateFlow(ctx context.Context, flow *model.ApprovalFlow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockStore) GetFlowByID(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	args := m.Called(ctx, tenantID, flowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalFlow), args.Error(1)
}

func (m *MockStore) ListFlows(ctx context.Context, tenantID string, filter model.FlowFilter) ([]model.ApprovalFlow, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalFlow), args.Error(1)
}

func (m *MockStore) UpdateFlow(ctx context.Context, flow *model.ApprovalFlow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockStore) SoftDeleteFlow(ctx context.Context, tenantID string, flowID uuid.UUID) error {
	args := m.Called(ctx, tenantID, flowID)
	return args.Error(0)
}

func (m *MockStore) CreateStep(ctx context.Context, step *model.ApprovalStep) error {
	args := m.Called(ctx, step)
	return args.Error(0)
}

func (m *MockStore) GetStepByID(ctx context.Context, stepID uuid.UUID) (*model.ApprovalStep, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalStep), args.Error(1)
}

func (m *MockStore) UpdateStep(ctx context.Context, step *model.ApprovalStep) error {
	args := m.Called(ctx, step)
	return args.Error(0)
}

func (m *MockStore) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
	args := m.Called(ctx, stepID)
	return args.Error(0)
}

func (m *MockStore) CreateRequest(ctx context.Context, request *model.ApprovalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockStore) GetRequestByID(ctx context.Context, tenantID string, requestID uuid.UUID) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, tenantID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockStore) ListRequests(ctx context.Context, tenantID string, filter model.RequestFilter) ([]model.ApprovalRequest, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalRequest), args.Error(1)
}

func (m *MockStore) ScanRequests(ctx context.Context, tenantID string, limit int) ([]model.ApprovalRequest, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalRequest), args.Error(1)
}

func (m *MockStore) FindPendingRequestByEntity(ctx context.Context, tenantID, entityType, entityID string) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, tenantID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockStore) CountPendingRequestsByFlow(ctx context.Context, tenantID string, flowID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, flowID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UpdateRequestCAS(ctx context.Context, request *model.ApprovalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockStore) CreateAction(ctx context.Context, action *model.ApprovalAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockStore) ListActions(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalAction), args.Error(1)
}

func (m *MockStore) CountDistinctApprovers(ctx context.Context, requestID uuid.UUID, stepOrder int) (int64, error) {
	args := m.Called(ctx, requestID, stepOrder)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreateDelegation(ctx context.Context, delegation *model.ApprovalDelegation) error {
	args := m.Called(ctx, delegation)
	return args.Error(0)
}

func (m *MockStore) ListDelegations(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDelegation, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalDelegation), args.Error(1)
}

// MockRoleChecker is a mock implementation of the RoleChecker interface.
type MockRoleChecker struct {
	mock.Mock
}

func (m *MockRoleChecker) HasRole(ctx context.Context, userID, role, tenantID string) (bool, error) {
	args := m.Called(ctx, userID, role, tenantID)
	return args.Bool(0), args.Error(1)
}

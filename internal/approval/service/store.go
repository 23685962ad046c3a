package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/erpcore/backend/internal/approval/model"
)

// Store is the persistence contract consumed by the flow engine and the
// approval service. All lookups are scoped by tenant; list operations order
// requests by requested_at descending, steps by step_order ascending and
// actions by acted_at ascending.
type Store interface {
	// Flows
	CreateFlow(ctx context.Context, flow *model.ApprovalFlow) error
	GetFlowByID(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error)
	ListFlows(ctx context.Context, tenantID string, filter model.FlowFilter) ([]model.ApprovalFlow, error)
	UpdateFlow(ctx context.Context, flow *model.ApprovalFlow) error
	SoftDeleteFlow(ctx context.Context, tenantID string, flowID uuid.UUID) error

	// Steps
	CreateStep(ctx context.Context, step *model.ApprovalStep) error
	GetStepByID(ctx context.Context, stepID uuid.UUID) (*model.ApprovalStep, error)
	UpdateStep(ctx context.Context, step *model.ApprovalStep) error
	DeleteStep(ctx context.Context, stepID uuid.UUID) error

	// Requests
	CreateRequest(ctx context.Context, request *model.ApprovalRequest) error
	GetRequestByID(ctx context.Context, tenantID string, requestID uuid.UUID) (*model.ApprovalRequest, error)
	ListRequests(ctx context.Context, tenantID string, filter model.RequestFilter) ([]model.ApprovalRequest, error)

	// ScanRequests retrieves up to limit of a tenant's requests, newest
	// first, for in-memory aggregation. The limit is applied as given,
	// bypassing the list pagination cap.
	ScanRequests(ctx context.Context, tenantID string, limit int) ([]model.ApprovalRequest, error)

	FindPendingRequestByEntity(ctx context.Context, tenantID, entityType, entityID string) (*model.ApprovalRequest, error)
	CountPendingRequestsByFlow(ctx context.Context, tenantID string, flowID uuid.UUID) (int64, error)

	// UpdateRequestCAS persists the request if and only if the stored version
	// matches request.Version; on success the version is incremented. A
	// conflicting concurrent write yields approval.ErrConcurrentUpdate.
	UpdateRequestCAS(ctx context.Context, request *model.ApprovalRequest) error

	// Actions (append-only)
	CreateAction(ctx context.Context, action *model.ApprovalAction) error
	ListActions(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error)
	CountDistinctApprovers(ctx context.Context, requestID uuid.UUID, stepOrder int) (int64, error)

	// Delegations
	CreateDelegation(ctx context.Context, delegation *model.ApprovalDelegation) error
	ListDelegations(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDelegation, error)
}

// RoleChecker answers tenant-scoped user-role membership questions. It backs
// the engine's role-based approver authorization.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role, tenantID string) (bool, error)
}

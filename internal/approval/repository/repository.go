// Package repository implements the approval store on top of GORM/Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erpcore/backend/internal/approval"
	"github.com/erpcore/backend/internal/approval/model"
	"github.com/erpcore/backend/utils"
)

// Repository is the GORM-backed implementation of the approval store.
type Repository struct {
	db *gorm.DB
}

// New creates a Repository bound to the given database handle.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateFlow inserts a flow together with its steps in one transaction.
func (r *Repository) CreateFlow(ctx context.Context, flow *model.ApprovalFlow) error {
	if err := r.db.WithContext(ctx).Create(flow).Error; err != nil {
		return fmt.Errorf("failed to create approval flow: %w", err)
	}
	return nil
}

// GetFlowByID retrieves a flow with its steps ordered by step_order.
func (r *Repository) GetFlowByID(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	var flow model.ApprovalFlow
	result := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&flow, "id = ? AND tenant_id = ?", flowID, tenantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", approval.ErrFlowNotFound, flowID)
		}
		return nil, fmt.Errorf("failed to retrieve approval flow: %w", result.Error)
	}
	return &flow, nil
}

// ListFlows retrieves flows for a tenant, optionally filtered by module and
// active state.
func (r *Repository) ListFlows(ctx context.Context, tenantID string, filter model.FlowFilter) ([]model.ApprovalFlow, error) {
	offset, limit := utils.PaginationParams(filter.Offset, filter.Limit)

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Module != nil {
		query = query.Where("module = ?", *filter.Module)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var flows []model.ApprovalFlow
	result := query.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&flows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list approval flows: %w", result.Error)
	}
	return flows, nil
}

// UpdateFlow persists flow attribute changes. Steps are managed separately.
func (r *Repository) UpdateFlow(ctx context.Context, flow *model.ApprovalFlow) error {
	if err := r.db.WithContext(ctx).Omit("Steps").Save(flow).Error; err != nil {
		return fmt.Errorf("failed to update approval flow %s: %w", flow.ID, err)
	}
	return nil
}

// SoftDeleteFlow marks a flow deleted. Historical requests keep referencing
// it; steps remain for audit reconstruction.
func (r *Repository) SoftDeleteFlow(ctx context.Context, tenantID string, flowID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", flowID, tenantID).
		Delete(&model.ApprovalFlow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete approval flow %s: %w", flowID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", approval.ErrFlowNotFound, flowID)
	}
	return nil
}

// CreateStep inserts a step.
func (r *Repository) CreateStep(ctx context.Context, step *model.ApprovalStep) error {
	if err := r.db.WithContext(ctx).Create(step).Error; err != nil {
		return fmt.Errorf("failed to create approval step: %w", err)
	}
	return nil
}

// GetStepByID retrieves a step by its primary key.
func (r *Repository) GetStepByID(ctx context.Context, stepID uuid.UUID) (*model.ApprovalStep, error) {
	var step model.ApprovalStep
	result := r.db.WithContext(ctx).First(&step, "id = ?", stepID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", approval.ErrStepNotFound, stepID)
		}
		return nil, fmt.Errorf("failed to retrieve approval step: %w", result.Error)
	}
	return &step, nil
}

// UpdateStep persists step changes.
func (r *Repository) UpdateStep(ctx context.Context, step *model.ApprovalStep) error {
	if err := r.db.WithContext(ctx).Save(step).Error; err != nil {
		return fmt.Errorf("failed to update approval step %s: %w", step.ID, err)
	}
	return nil
}

// DeleteStep removes a step from its flow.
func (r *Repository) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.ApprovalStep{}, "id = ?", stepID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete approval step %s: %w", stepID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", approval.ErrStepNotFound, stepID)
	}
	return nil
}

// CreateRequest inserts a request.
func (r *Repository) CreateRequest(ctx context.Context, request *model.ApprovalRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

// GetRequestByID retrieves a request scoped by tenant.
func (r *Repository) GetRequestByID(ctx context.Context, tenantID string, requestID uuid.UUID) (*model.ApprovalRequest, error) {
	var request model.ApprovalRequest
	result := r.db.WithContext(ctx).
		First(&request, "id = ? AND tenant_id = ?", requestID, tenantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", approval.ErrRequestNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to retrieve approval request: %w", result.Error)
	}
	return &request, nil
}

// ListRequests retrieves requests for a tenant ordered by requested_at
// descending, narrowed by the filter.
func (r *Repository) ListRequests(ctx context.Context, tenantID string, filter model.RequestFilter) ([]model.ApprovalRequest, error) {
	offset, limit := utils.PaginationParams(filter.Offset, filter.Limit)

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.FlowID != nil {
		query = query.Where("flow_id = ?", *filter.FlowID)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequestedBy != nil {
		query = query.Where("requested_by = ?", *filter.RequestedBy)
	}

	var requests []model.ApprovalRequest
	result := query.
		Order("requested_at DESC").
		Offset(offset).Limit(limit).
		Find(&requests)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", result.Error)
	}
	return requests, nil
}

// ScanRequests retrieves up to limit of a tenant's requests ordered by
// requested_at descending. Unlike ListRequests the limit is not routed
// through the pagination cap; the stats aggregation depends on scanning its
// full documented window.
func (r *Repository) ScanRequests(ctx context.Context, tenantID string, limit int) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("requested_at DESC").
		Limit(limit).
		Find(&requests)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to scan approval requests: %w", result.Error)
	}
	return requests, nil
}

// FindPendingRequestByEntity returns the pending request for an entity, or
// approval.ErrRequestNotFound if no pending request exists.
func (r *Repository) FindPendingRequestByEntity(ctx context.Context, tenantID, entityType, entityID string) (*model.ApprovalRequest, error) {
	var request model.ApprovalRequest
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ? AND status = ?",
			tenantID, entityType, entityID, model.RequestStatusPending).
		Order("requested_at DESC").
		First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no pending request for %s/%s", approval.ErrRequestNotFound, entityType, entityID)
		}
		return nil, fmt.Errorf("failed to find pending request: %w", result.Error)
	}
	return &request, nil
}

// CountPendingRequestsByFlow counts pending requests referencing a flow. The
// service uses this as the mutation guard.
func (r *Repository) CountPendingRequestsByFlow(ctx context.Context, tenantID string, flowID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Where("tenant_id = ? AND flow_id = ? AND status = ?", tenantID, flowID, model.RequestStatusPending).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count pending requests for flow %s: %w", flowID, result.Error)
	}
	return count, nil
}

// UpdateRequestCAS writes the request guarded by its version column. The
// update only applies when the stored version still matches the version the
// caller read; losers of a concurrent race get approval.ErrConcurrentUpdate.
func (r *Repository) UpdateRequestCAS(ctx context.Context, request *model.ApprovalRequest) error {
	currentVersion := request.Version
	result := r.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Where("id = ? AND version = ?", request.ID, currentVersion).
		Updates(map[string]any{
			"status":       request.Status,
			"current_step": request.CurrentStep,
			"completed_at": request.CompletedAt,
			"version":      currentVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update approval request %s: %w", request.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: request %s version %d", approval.ErrConcurrentUpdate, request.ID, currentVersion)
	}
	request.Version = currentVersion + 1
	return nil
}

// CreateAction appends an immutable audit action.
func (r *Repository) CreateAction(ctx context.Context, action *model.ApprovalAction) error {
	if err := r.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to create approval action: %w", err)
	}
	return nil
}

// ListActions retrieves a request's actions ordered by acted_at ascending.
func (r *Repository) ListActions(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error) {
	var actions []model.ApprovalAction
	result := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("acted_at ASC").
		Find(&actions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list approval actions: %w", result.Error)
	}
	return actions, nil
}

// CountDistinctApprovers counts distinct users that recorded an approve
// action at the given step of a request.
func (r *Repository) CountDistinctApprovers(ctx context.Context, requestID uuid.UUID, stepOrder int) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&model.ApprovalAction{}).
		Where("request_id = ? AND step_order = ? AND action_type = ?", requestID, stepOrder, model.ActionTypeApprove).
		Distinct("acted_by").
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count approvers for request %s step %d: %w", requestID, stepOrder, result.Error)
	}
	return count, nil
}

// CreateDelegation inserts a delegation record.
func (r *Repository) CreateDelegation(ctx context.Context, delegation *model.ApprovalDelegation) error {
	if err := r.db.WithContext(ctx).Create(delegation).Error; err != nil {
		return fmt.Errorf("failed to create approval delegation: %w", err)
	}
	return nil
}

// ListDelegations retrieves all delegation records for a request, oldest
// first.
func (r *Repository) ListDelegations(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDelegation, error) {
	var delegations []model.ApprovalDelegation
	result := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&delegations)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list approval delegations: %w", result.Error)
	}
	return delegations, nil
}

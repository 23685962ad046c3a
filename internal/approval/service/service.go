// Package service implements the approval workflow engine: the condition
// evaluator, the flow state machine and the orchestration service that wraps
// it with persistence, notifications and event publication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erpcore/backend/internal/approval"
	"github.com/erpcore/backend/internal/approval/model"
	"github.com/erpcore/backend/internal/events"
	"github.com/erpcore/backend/internal/flowrun"
	"github.com/erpcore/backend/internal/task"
)

// Notifier creates user notifications. Called fire-and-forget.
type Notifier interface {
	CreateNotification(ctx context.Context, tenantID, userID, title, message, notificationType, entityType, entityID string, metadata map[string]any) error
}

// TaskCreator creates review tasks for approvers. Called fire-and-forget.
type TaskCreator interface {
	CreateTask(ctx context.Context, tenantID, title, description, taskType, assignedTo string, metadata map[string]any) (*task.ReviewTask, error)
}

// FlowRunTracker mirrors approval outcomes into an external execution
// tracking record. Entirely optional; its absence or failure never changes
// approval semantics.
type FlowRunTracker interface {
	CreateFlowRun(ctx context.Context, tenantID, entityType, entityID string) (*flowrun.FlowRun, error)
	StartFlowRun(ctx context.Context, tenantID, entityType, entityID string) error
	CompleteFlowRun(ctx context.Context, tenantID, entityType, entityID string) error
	FailFlowRun(ctx context.Context, tenantID, entityType, entityID string) error
}

// FlowCache caches flow templates between mutations. Optional; failures fall
// through to the store.
type FlowCache interface {
	Get(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error)
	Set(ctx context.Context, flow *model.ApprovalFlow) error
	Invalidate(ctx context.Context, tenantID string, flowID uuid.UUID) error
}

// ApprovalService orchestrates flow, step and request lifecycle around the
// FlowEngine. The engine's state transition is authoritative; notifications,
// review tasks, flow-run tracking and event publication are post-commit side
// effects that are individually fenced and never propagate failures.
type ApprovalService struct {
	store     Store
	engine    *FlowEngine
	publisher events.Publisher
	notifier  Notifier
	tasks     TaskCreator
	tracker   FlowRunTracker
	flowCache FlowCache
}

// Option configures an ApprovalService.
type Option func(*ApprovalService)

// WithNotifier wires the notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(s *ApprovalService) { s.notifier = n }
}

// WithTaskCreator wires the review-task collaborator.
func WithTaskCreator(t TaskCreator) Option {
	return func(s *ApprovalService) { s.tasks = t }
}

// WithFlowRunTracker wires the optional flow-run tracker.
func WithFlowRunTracker(t FlowRunTracker) Option {
	return func(s *ApprovalService) { s.tracker = t }
}

// WithFlowCache wires the optional flow template cache.
func WithFlowCache(c FlowCache) Option {
	return func(s *ApprovalService) { s.flowCache = c }
}

// NewApprovalService creates an ApprovalService. The publisher is injected
// explicitly; there is no package-level default.
func NewApprovalService(store Store, engine *FlowEngine, publisher events.Publisher, opts ...Option) *ApprovalService {
	s := &ApprovalService{
		store:     store,
		engine:    engine,
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the underlying flow engine.
func (s *ApprovalService) Engine() *FlowEngine {
	return s.engine
}

// CreateApprovalFlow validates and creates a flow template.
func (s *ApprovalService) CreateApprovalFlow(ctx context.Context, tenantID, createdBy string, dto model.CreateFlowDTO) (*model.ApprovalFlow, error) {
	switch dto.FlowType {
	case model.FlowTypeSequential, model.FlowTypeParallel, model.FlowTypeConditional:
	default:
		return nil, fmt.Errorf("unknown flow_type %q", dto.FlowType)
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("flow name is required")
	}
	if err := validateConditions(dto.Conditions); err != nil {
		return nil, err
	}

	isActive := true
	if dto.IsActive != nil {
		isActive = *dto.IsActive
	}

	flow := &model.ApprovalFlow{
		TenantID:    tenantID,
		Name:        dto.Name,
		Description: dto.Description,
		FlowType:    dto.FlowType,
		Module:      dto.Module,
		Conditions:  dto.Conditions,
		IsActive:    isActive,
		CreatedBy:   createdBy,
	}
	if err := s.store.CreateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// GetApprovalFlow retrieves a flow with its steps.
func (s *ApprovalService) GetApprovalFlow(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	return s.loadFlow(ctx, tenantID, flowID)
}

// ListApprovalFlows lists a tenant's flows.
func (s *ApprovalService) ListApprovalFlows(ctx context.Context, tenantID string, filter model.FlowFilter) ([]model.ApprovalFlow, error) {
	return s.store.ListFlows(ctx, tenantID, filter)
}

// UpdateApprovalFlow applies a partial update to a flow. Rejected while any
// request referencing the flow is pending.
func (s *ApprovalService) UpdateApprovalFlow(ctx context.Context, tenantID string, flowID uuid.UUID, dto model.UpdateFlowDTO) (*model.ApprovalFlow, error) {
	flow, err := s.store.GetFlowByID(ctx, tenantID, flowID)
	if err != nil {
		return nil, err
	}
	if err := s.guardNoPendingRequests(ctx, tenantID, flowID); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		flow.Name = *dto.Name
	}
	if dto.Description != nil {
		flow.Description = *dto.Description
	}
	if dto.FlowType != nil {
		switch *dto.FlowType {
		case model.FlowTypeSequential, model.FlowTypeParallel, model.FlowTypeConditional:
			flow.FlowType = *dto.FlowType
		default:
			return nil, fmt.Errorf("unknown flow_type %q", *dto.FlowType)
		}
	}
	if dto.Conditions != nil {
		if err := validateConditions(*dto.Conditions); err != nil {
			return nil, err
		}
		flow.Conditions = *dto.Conditions
	}
	if dto.IsActive != nil {
		flow.IsActive = *dto.IsActive
	}

	if err := s.store.UpdateFlow(ctx, flow); err != nil {
		return nil, err
	}
	s.invalidateFlow(ctx, tenantID, flowID)
	return flow, nil
}

// DeleteApprovalFlow soft-deletes a flow. Rejected while any request
// referencing the flow is pending; historical requests are untouched.
func (s *ApprovalService) DeleteApprovalFlow(ctx context.Context, tenantID string, flowID uuid.UUID) error {
	if _, err := s.store.GetFlowByID(ctx, tenantID, flowID); err != nil {
		return err
	}
	if err := s.guardNoPendingRequests(ctx, tenantID, flowID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteFlow(ctx, tenantID, flowID); err != nil {
		return err
	}
	s.invalidateFlow(ctx, tenantID, flowID)
	return nil
}

// AddApprovalStep adds a step to a flow. Rejected while the flow has pending
// requests.
func (s *ApprovalService) AddApprovalStep(ctx context.Context, tenantID string, flowID uuid.UUID, dto model.CreateStepDTO) (*model.ApprovalStep, error) {
	flow, err := s.store.GetFlowByID(ctx, tenantID, flowID)
	if err != nil {
		return nil, err
	}
	if err := s.guardNoPendingRequests(ctx, tenantID, flowID); err != nil {
		return nil, err
	}

	step := &model.ApprovalStep{
		FlowID:       flow.ID,
		StepOrder:    dto.StepOrder,
		Name:         dto.Name,
		Description:  dto.Description,
		ApproverType: dto.ApproverType,
		ApproverID:   dto.ApproverID,
		ApproverRole: dto.ApproverRole,
		ApproverRule: dto.ApproverRule,
		RequireAll:   dto.RequireAll,
		MinApprovals: dto.MinApprovals,
	}
	if err := step.Validate(); err != nil {
		return nil, err
	}
	for i := range flow.Steps {
		if flow.Steps[i].StepOrder == dto.StepOrder {
			return nil, fmt.Errorf("flow %s already has a step with order %d", flowID, dto.StepOrder)
		}
	}

	if err := s.store.CreateStep(ctx, step); err != nil {
		return nil, err
	}
	s.invalidateFlow(ctx, tenantID, flowID)
	return step, nil
}

// UpdateApprovalStep applies a partial update to a step. Rejected while the
// flow has pending requests.
func (s *ApprovalService) UpdateApprovalStep(ctx context.Context, tenantID string, stepID uuid.UUID, dto model.UpdateStepDTO) (*model.ApprovalStep, error) {
	step, err := s.store.GetStepByID(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetFlowByID(ctx, tenantID, step.FlowID); err != nil {
		return nil, err
	}
	if err := s.guardNoPendingRequests(ctx, tenantID, step.FlowID); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		step.Name = *dto.Name
	}
	if dto.Description != nil {
		step.Description = *dto.Description
	}
	if dto.RequireAll != nil {
		step.RequireAll = *dto.RequireAll
	}
	if dto.MinApprovals != nil {
		step.MinApprovals = *dto.MinApprovals
	}

	if err := s.store.UpdateStep(ctx, step); err != nil {
		return nil, err
	}
	s.invalidateFlow(ctx, tenantID, step.FlowID)
	return step, nil
}

// DeleteApprovalStep removes a step from its flow. Rejected while the flow
// has pending requests.
func (s *ApprovalService) DeleteApprovalStep(ctx context.Context, tenantID string, stepID uuid.UUID) error {
	step, err := s.store.GetStepByID(ctx, stepID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetFlowByID(ctx, tenantID, step.FlowID); err != nil {
		return err
	}
	if err := s.guardNoPendingRequests(ctx, tenantID, step.FlowID); err != nil {
		return err
	}
	if err := s.store.DeleteStep(ctx, stepID); err != nil {
		return err
	}
	s.invalidateFlow(ctx, tenantID, step.FlowID)
	return nil
}

// CreateApprovalRequest instantiates a flow against a business entity. The
// request is created PENDING at step 1; flow-run creation, approver
// notifications, review tasks and the approval.requested event all run
// best-effort afterwards.
func (s *ApprovalService) CreateApprovalRequest(ctx context.Context, tenantID string, dto model.CreateRequestDTO) (*model.ApprovalRequest, error) {
	flow, err := s.loadFlow(ctx, tenantID, dto.FlowID)
	if err != nil {
		return nil, err
	}
	if dto.Title == "" {
		return nil, fmt.Errorf("request title is required")
	}

	request := &model.ApprovalRequest{
		TenantID:        tenantID,
		FlowID:          flow.ID,
		Title:           dto.Title,
		Description:     dto.Description,
		EntityType:      dto.EntityType,
		EntityID:        dto.EntityID,
		Status:          model.RequestStatusPending,
		CurrentStep:     1,
		RequestedBy:     dto.RequestedBy,
		RequestMetadata: dto.Metadata,
		RequestedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	// Post-commit side effects; each independently fenced.
	if s.tracker != nil {
		if _, err := s.tracker.CreateFlowRun(ctx, tenantID, request.EntityType, request.EntityID); err != nil {
			slog.Error("failed to create flow run", "request_id", request.ID, "error", err)
		}
	}
	s.notifyCurrentApprovers(ctx, request, flow)
	s.publish(ctx, events.TypeApprovalRequested, request, dto.RequestedBy, nil)

	return request, nil
}

// GetApprovalRequest retrieves a request scoped by tenant.
func (s *ApprovalService) GetApprovalRequest(ctx context.Context, tenantID string, requestID uuid.UUID) (*model.ApprovalRequest, error) {
	return s.store.GetRequestByID(ctx, tenantID, requestID)
}

// ListApprovalRequests lists a tenant's requests, newest first.
func (s *ApprovalService) ListApprovalRequests(ctx context.Context, tenantID string, filter model.RequestFilter) ([]model.ApprovalRequest, error) {
	return s.store.ListRequests(ctx, tenantID, filter)
}

// ApproveRequest records an approval by the user and advances the request.
// The transition is authoritative; flow-run synchronization and event
// publication run best-effort afterwards.
func (s *ApprovalService) ApproveRequest(ctx context.Context, tenantID string, requestID uuid.UUID, userID string, actx model.ActionContext) (*model.ApprovalRequest, error) {
	return s.processAction(ctx, tenantID, requestID, userID, model.ActionTypeApprove, actx)
}

// RejectRequest records a rejection by the user, terminating the request.
func (s *ApprovalService) RejectRequest(ctx context.Context, tenantID string, requestID uuid.UUID, userID string, actx model.ActionContext) (*model.ApprovalRequest, error) {
	return s.processAction(ctx, tenantID, requestID, userID, model.ActionTypeReject, actx)
}

func (s *ApprovalService) processAction(ctx context.Context, tenantID string, requestID uuid.UUID, userID string, actionType model.ActionType, actx model.ActionContext) (*model.ApprovalRequest, error) {
	request, err := s.store.GetRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	flow, err := s.loadFlow(ctx, tenantID, request.FlowID)
	if err != nil {
		return nil, err
	}

	authorized, err := s.engine.CanApprove(ctx, request, userID, flow)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("%w: request %s", approval.ErrNotAuthorized, requestID)
	}

	previousStep := request.CurrentStep
	request, err = s.engine.ProcessApproval(ctx, request, userID, actionType, actx)
	if err != nil {
		return nil, err
	}

	s.syncFlowRun(ctx, request)
	switch request.Status {
	case model.RequestStatusApproved:
		s.publish(ctx, events.TypeApprovalApproved, request, userID, nil)
	case model.RequestStatusRejected:
		s.publish(ctx, events.TypeApprovalRejected, request, userID, nil)
	default:
		// Still pending; notify the next step's approvers once it advances.
		if request.CurrentStep != previousStep {
			s.notifyCurrentApprovers(ctx, request, flow)
		}
	}

	return request, nil
}

// CancelRequest cancels a pending request. Any other status yields
// ErrInvalidTransition.
func (s *ApprovalService) CancelRequest(ctx context.Context, tenantID string, requestID uuid.UUID, userID string) (*model.ApprovalRequest, error) {
	request, err := s.store.GetRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestStatusPending {
		return nil, fmt.Errorf("%w: cannot cancel request in status %s", approval.ErrInvalidTransition, request.Status)
	}

	now := time.Now().UTC()
	request.Status = model.RequestStatusCancelled
	request.CompletedAt = &now
	if err := s.store.UpdateRequestCAS(ctx, request); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeApprovalCancelled, request, userID, nil)
	return request, nil
}

// DelegateApproval hands the delegator's approval authority on a request to
// another user. The delegator must currently be able to approve the request;
// self-delegation is rejected.
func (s *ApprovalService) DelegateApproval(ctx context.Context, tenantID string, requestID uuid.UUID, fromUserID, toUserID, reason string, expiresAt *time.Time) (*model.ApprovalDelegation, error) {
	if fromUserID == toUserID {
		return nil, approval.ErrSelfDelegation
	}

	request, err := s.store.GetRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	flow, err := s.loadFlow(ctx, tenantID, request.FlowID)
	if err != nil {
		return nil, err
	}

	authorized, err := s.engine.CanApprove(ctx, request, fromUserID, flow)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("%w: %s cannot delegate request %s", approval.ErrNotAuthorized, fromUserID, requestID)
	}

	delegation := &model.ApprovalDelegation{
		RequestID:  request.ID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Reason:     reason,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}
	if err := s.store.CreateDelegation(ctx, delegation); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeApprovalDelegated, request, fromUserID, map[string]any{
		"delegated_to": toUserID,
	})
	return delegation, nil
}

// BulkApproveRequests approves each listed request independently. A failure
// on one request is logged and does not abort the rest; the call returns
// only the successfully transitioned requests.
func (s *ApprovalService) BulkApproveRequests(ctx context.Context, tenantID string, requestIDs []uuid.UUID, userID string, actx model.ActionContext) []model.ApprovalRequest {
	return s.bulkProcess(ctx, tenantID, requestIDs, userID, model.ActionTypeApprove, actx)
}

// BulkRejectRequests rejects each listed request independently, with the
// same partial-success semantics as BulkApproveRequests.
func (s *ApprovalService) BulkRejectRequests(ctx context.Context, tenantID string, requestIDs []uuid.UUID, userID string, actx model.ActionContext) []model.ApprovalRequest {
	return s.bulkProcess(ctx, tenantID, requestIDs, userID, model.ActionTypeReject, actx)
}

func (s *ApprovalService) bulkProcess(ctx context.Context, tenantID string, requestIDs []uuid.UUID, userID string, actionType model.ActionType, actx model.ActionContext) []model.ApprovalRequest {
	processed := make([]model.ApprovalRequest, 0, len(requestIDs))
	var failures []error

	for _, requestID := range requestIDs {
		request, err := s.processAction(ctx, tenantID, requestID, userID, actionType, actx)
		if err != nil {
			failures = append(failures, fmt.Errorf("request %s: %w", requestID, err))
			continue
		}
		processed = append(processed, *request)
	}

	for _, err := range failures {
		slog.Error("bulk approval item failed",
			"tenant_id", tenantID,
			"action", actionType,
			"acted_by", userID,
			"error", err)
	}

	return processed
}

// guardNoPendingRequests rejects flow/step mutation while any request
// referencing the flow is pending.
func (s *ApprovalService) guardNoPendingRequests(ctx context.Context, tenantID string, flowID uuid.UUID) error {
	count, err := s.store.CountPendingRequestsByFlow(ctx, tenantID, flowID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: flow %s has %d pending request(s)", approval.ErrFlowHasPendingRequests, flowID, count)
	}
	return nil
}

// loadFlow resolves a flow through the cache when one is configured. Cache
// failures other than a miss are logged and fall through to the store.
func (s *ApprovalService) loadFlow(ctx context.Context, tenantID string, flowID uuid.UUID) (*model.ApprovalFlow, error) {
	if s.flowCache != nil {
		if flow, err := s.flowCache.Get(ctx, tenantID, flowID); err == nil {
			return flow, nil
		}
	}

	flow, err := s.store.GetFlowByID(ctx, tenantID, flowID)
	if err != nil {
		return nil, err
	}

	if s.flowCache != nil {
		if err := s.flowCache.Set(ctx, flow); err != nil {
			slog.Warn("failed to cache approval flow", "flow_id", flowID, "error", err)
		}
	}
	return flow, nil
}

func (s *ApprovalService) invalidateFlow(ctx context.Context, tenantID string, flowID uuid.UUID) {
	if s.flowCache == nil {
		return
	}
	if err := s.flowCache.Invalidate(ctx, tenantID, flowID); err != nil {
		slog.Warn("failed to invalidate cached approval flow", "flow_id", flowID, "error", err)
	}
}

// notifyCurrentApprovers notifies and creates review tasks for the approvers
// of the request's current step. Only user-type steps resolve to approvers;
// role and dynamic resolution return nothing.
//
// TODO: resolve role approvers by enumerating tenant role holders once the
// auth service exposes that query.
func (s *ApprovalService) notifyCurrentApprovers(ctx context.Context, request *model.ApprovalRequest, flow *model.ApprovalFlow) {
	step := s.engine.GetCurrentStep(request, flow)
	if step == nil {
		return
	}

	approvers := resolveStepApprovers(step)
	for _, userID := range approvers {
		if s.notifier != nil {
			err := s.notifier.CreateNotification(ctx, request.TenantID, userID,
				"Approval required: "+request.Title,
				fmt.Sprintf("Request %q is awaiting your approval at step %d.", request.Title, step.StepOrder),
				"approval_required",
				request.EntityType, request.EntityID,
				map[string]any{"request_id": request.ID.String()})
			if err != nil {
				slog.Error("failed to notify approver",
					"request_id", request.ID,
					"user_id", userID,
					"error", err)
			}
		}
		if s.tasks != nil {
			_, err := s.tasks.CreateTask(ctx, request.TenantID,
				"Review: "+request.Title,
				request.Description,
				"approval_review",
				userID,
				map[string]any{"request_id": request.ID.String(), "step": step.StepOrder})
			if err != nil {
				slog.Error("failed to create review task",
					"request_id", request.ID,
					"user_id", userID,
					"error", err)
			}
		}
	}
}

// resolveStepApprovers lists the concrete approver user ids of a step.
func resolveStepApprovers(step *model.ApprovalStep) []string {
	switch step.ApproverType {
	case model.ApproverTypeUser:
		if step.ApproverID != nil {
			return []string{*step.ApproverID}
		}
	case model.ApproverTypeRole, model.ApproverTypeDynamic:
		// Not resolvable to a user list yet.
	}
	return nil
}

// syncFlowRun mirrors the request's resulting status into the external
// flow-run record. Strictly best-effort.
func (s *ApprovalService) syncFlowRun(ctx context.Context, request *model.ApprovalRequest) {
	if s.tracker == nil {
		return
	}

	var err error
	switch request.Status {
	case model.RequestStatusApproved:
		err = s.tracker.CompleteFlowRun(ctx, request.TenantID, request.EntityType, request.EntityID)
	case model.RequestStatusRejected:
		err = s.tracker.FailFlowRun(ctx, request.TenantID, request.EntityType, request.EntityID)
	case model.RequestStatusPending:
		err = s.tracker.StartFlowRun(ctx, request.TenantID, request.EntityType, request.EntityID)
	}
	if err != nil {
		slog.Error("failed to synchronize flow run",
			"request_id", request.ID,
			"status", request.Status,
			"error", err)
	}
}

func (s *ApprovalService) publish(ctx context.Context, eventType string, request *model.ApprovalRequest, userID string, metadata map[string]any) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		EntityType: request.EntityType,
		EntityID:   request.EntityID,
		TenantID:   request.TenantID,
		UserID:     userID,
		Metadata:   metadata,
	})
	if err != nil {
		slog.Error("failed to publish approval event",
			"event_type", eventType,
			"request_id", request.ID,
			"error", err)
	}
}

// validateConditions checks the shape of a flow's conditions payload:
// optional "rules" list of {field, operator, value} triples with a known
// operator, optional "logic" of AND or OR, and per-step entries that must be
// mappings.
func validateConditions(conditions model.ConditionMap) error {
	if conditions == nil {
		return nil
	}

	for key, value := range conditions {
		switch key {
		case "rules":
			rules, ok := value.([]any)
			if !ok {
				return fmt.Errorf("%w: rules must be a list", approval.ErrInvalidConditions)
			}
			for i, raw := range rules {
				rule, ok := raw.(map[string]any)
				if !ok {
					return fmt.Errorf("%w: rule %d must be an object", approval.ErrInvalidConditions, i)
				}
				field, _ := rule["field"].(string)
				operator, _ := rule["operator"].(string)
				if field == "" {
					return fmt.Errorf("%w: rule %d is missing a field", approval.ErrInvalidConditions, i)
				}
				if !ConditionOperators[operator] {
					return fmt.Errorf("%w: rule %d has unknown operator %q", approval.ErrInvalidConditions, i, operator)
				}
				if _, hasValue := rule["value"]; !hasValue {
					return fmt.Errorf("%w: rule %d is missing a value", approval.ErrInvalidConditions, i)
				}
			}
		case "logic":
			logic, ok := value.(string)
			if !ok || (logic != "AND" && logic != "OR") {
				return fmt.Errorf("%w: logic must be AND or OR", approval.ErrInvalidConditions)
			}
		default:
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("%w: %q must be an object", approval.ErrInvalidConditions, key)
			}
		}
	}
	return nil
}

// IsNotFound reports whether the error is any of the approval NotFound
// sentinels, for callers mapping domain errors to transport codes.
func IsNotFound(err error) bool {
	return errors.Is(err, approval.ErrFlowNotFound) ||
		errors.Is(err, approval.ErrStepNotFound) ||
		errors.Is(err, approval.ErrCurrentStepNotFound) ||
		errors.Is(err, approval.ErrRequestNotFound)
}

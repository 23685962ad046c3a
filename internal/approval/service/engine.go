package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erpcore/backend/internal/approval"
	"github.com/erpcore/backend/internal/approval/model"
)

// FlowEngine is the approval state machine. It operates on the pair
// (request.CurrentStep, request.Status): PENDING requests advance through the
// flow's step_order sequence until they resolve to APPROVED or REJECTED.
// CANCELLED is reachable only through the service's explicit cancel, never
// through ProcessApproval.
type FlowEngine struct {
	store     Store
	roles     RoleChecker
	evaluator *ConditionEvaluator
}

// NewFlowEngine creates a FlowEngine backed by the given store and role
// checker.
func NewFlowEngine(store Store, roles RoleChecker) *FlowEngine {
	return &FlowEngine{
		store:     store,
		roles:     roles,
		evaluator: NewConditionEvaluator(),
	}
}

// Evaluator exposes the engine's condition evaluator for flow validation.
func (e *FlowEngine) Evaluator() *ConditionEvaluator {
	return e.evaluator
}

// GetCurrentStep returns the step the request currently points at, or nil if
// the flow no longer contains that step_order.
func (e *FlowEngine) GetCurrentStep(request *model.ApprovalRequest, flow *model.ApprovalFlow) *model.ApprovalStep {
	for i := range flow.Steps {
		if flow.Steps[i].StepOrder == request.CurrentStep {
			return &flow.Steps[i]
		}
	}
	return nil
}

// GetNextStep scans the flow's steps in ascending step_order, filtering to
// orders beyond the request's current step and skipping any step whose
// conditions match the request. Returns nil when no step survives, which
// signals flow completion.
func (e *FlowEngine) GetNextStep(request *model.ApprovalRequest, flow *model.ApprovalFlow) *model.ApprovalStep {
	var next *model.ApprovalStep
	for i := range flow.Steps {
		step := &flow.Steps[i]
		if step.StepOrder <= request.CurrentStep {
			continue
		}
		if next != nil && step.StepOrder >= next.StepOrder {
			continue
		}
		if e.evaluator.ShouldSkip(step, request, flow) {
			continue
		}
		next = step
	}
	return next
}

// CanApprove reports whether the user is authorized to approve the request's
// current step. Active, unexpired delegations to the user are honored: the
// delegate inherits exactly the delegator's authority on this request.
func (e *FlowEngine) CanApprove(ctx context.Context, request *model.ApprovalRequest, userID string, flow *model.ApprovalFlow) (bool, error) {
	step := e.GetCurrentStep(request, flow)
	if step == nil {
		return false, nil
	}

	authorized, err := e.stepApprover(ctx, step, userID, request.TenantID)
	if err != nil {
		return false, err
	}
	if authorized {
		return true, nil
	}

	delegations, err := e.store.ListDelegations(ctx, request.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check delegations: %w", err)
	}
	now := time.Now().UTC()
	for i := range delegations {
		d := &delegations[i]
		if d.ToUserID != userID || !d.IsEffective(now) {
			continue
		}
		delegatorAuthorized, err := e.stepApprover(ctx, step, d.FromUserID, request.TenantID)
		if err != nil {
			return false, err
		}
		if delegatorAuthorized {
			return true, nil
		}
	}

	return false, nil
}

// stepApprover checks the user directly against the step's approver rule,
// without considering delegations.
func (e *FlowEngine) stepApprover(ctx context.Context, step *model.ApprovalStep, userID, tenantID string) (bool, error) {
	switch step.ApproverType {
	case model.ApproverTypeUser:
		return step.ApproverID != nil && *step.ApproverID == userID, nil
	case model.ApproverTypeRole:
		if step.ApproverRole == nil {
			return false, nil
		}
		return e.roles.HasRole(ctx, userID, *step.ApproverRole, tenantID)
	case model.ApproverTypeDynamic:
		// TODO: evaluate approver_rule; dynamic approver resolution is not
		// implemented yet and denies everyone.
		return false, nil
	}
	return false, nil
}

// ProcessApproval is the sole state-transition entry point. It records the
// action against the current step, then advances or finalizes the request
// according to the flow type. The request write is a compare-and-swap on the
// version column; losers of a concurrent race get ErrConcurrentUpdate and
// must retry against the refreshed request.
func (e *FlowEngine) ProcessApproval(
	ctx context.Context,
	request *model.ApprovalRequest,
	userID string,
	actionType model.ActionType,
	actx model.ActionContext,
) (*model.ApprovalRequest, error) {
	if request.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is already %s", approval.ErrInvalidTransition, request.ID, request.Status)
	}

	flow, err := e.store.GetFlowByID(ctx, request.TenantID, request.FlowID)
	if err != nil {
		return nil, err
	}

	currentStep := e.GetCurrentStep(request, flow)
	if currentStep == nil {
		return nil, fmt.Errorf("%w: request %s step %d", approval.ErrCurrentStepNotFound, request.ID, request.CurrentStep)
	}

	now := time.Now().UTC()
	action := &model.ApprovalAction{
		RequestID: request.ID,
		Action:    actionType,
		StepOrder: currentStep.StepOrder,
		Comment:   actx.Comment,
		ActedBy:   userID,
		IPAddress: actx.IPAddress,
		UserAgent: actx.UserAgent,
		ActedAt:   now,
	}
	if err := e.store.CreateAction(ctx, action); err != nil {
		return nil, err
	}

	switch actionType {
	case model.ActionTypeApprove:
		if err := e.applyApproval(ctx, request, flow, currentStep, now); err != nil {
			return nil, err
		}
	case model.ActionTypeReject:
		// A rejection at any step terminates the whole request, regardless
		// of flow type.
		request.Status = model.RequestStatusRejected
		request.CompletedAt = &now
		if err := e.store.UpdateRequestCAS(ctx, request); err != nil {
			return nil, err
		}
	default:
		// Comments are recorded in the audit trail without a transition.
		return request, nil
	}

	slog.Info("approval action processed",
		"request_id", request.ID,
		"action", actionType,
		"step", currentStep.StepOrder,
		"status", request.Status,
		"acted_by", userID)

	return request, nil
}

// applyApproval advances a request after an approve action, honoring the
// flow's traversal semantics.
func (e *FlowEngine) applyApproval(
	ctx context.Context,
	request *model.ApprovalRequest,
	flow *model.ApprovalFlow,
	currentStep *model.ApprovalStep,
	now time.Time,
) error {
	if flow.FlowType == model.FlowTypeParallel {
		complete, err := e.parallelStepComplete(ctx, request, currentStep)
		if err != nil {
			return err
		}
		if !complete {
			// Quorum not met yet; the request stays pending at this step.
			return nil
		}
	}

	if next := e.GetNextStep(request, flow); next != nil {
		request.CurrentStep = next.StepOrder
	} else {
		request.Status = model.RequestStatusApproved
		request.CompletedAt = &now
	}
	return e.store.UpdateRequestCAS(ctx, request)
}

// parallelStepComplete evaluates the quorum rule of a parallel step against
// the distinct approvers recorded so far.
//
// RequireAll has no configured approver roster to compare against, so a
// single recorded approval completes the step; it behaves like the default
// quorum of one.
func (e *FlowEngine) parallelStepComplete(ctx context.Context, request *model.ApprovalRequest, step *model.ApprovalStep) (bool, error) {
	count, err := e.store.CountDistinctApprovers(ctx, request.ID, step.StepOrder)
	if err != nil {
		return false, err
	}

	if step.RequireAll {
		return count >= 1, nil
	}
	if step.MinApprovals > 0 {
		return count >= int64(step.MinApprovals), nil
	}
	return count >= 1, nil
}

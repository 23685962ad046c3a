// Package approval defines the domain errors shared by the approval engine,
// its orchestration service and the persistence layer.
package approval

import "errors"

var (
	// ErrFlowNotFound indicates the referenced approval flow does not exist
	// for the tenant.
	ErrFlowNotFound = errors.New("approval flow not found")

	// ErrStepNotFound indicates a step lookup by id failed.
	ErrStepNotFound = errors.New("approval step not found")

	// ErrCurrentStepNotFound indicates a request points at a step_order the
	// flow no longer contains. The flow is structurally incomplete.
	ErrCurrentStepNotFound = errors.New("current approval step not found in flow")

	// ErrRequestNotFound indicates the referenced approval request does not
	// exist for the tenant.
	ErrRequestNotFound = errors.New("approval request not found")

	// ErrInvalidTransition indicates an operation that is not legal from the
	// request's current status, or a mutation of a flow or step that still
	// has pending requests.
	ErrInvalidTransition = errors.New("invalid approval state transition")

	// ErrFlowHasPendingRequests indicates a flow or step mutation was
	// rejected because at least one request referencing the flow is pending.
	ErrFlowHasPendingRequests = errors.New("approval flow has pending requests")

	// ErrNotAuthorized indicates the acting user cannot approve the
	// request's current step.
	ErrNotAuthorized = errors.New("user is not authorized to approve this step")

	// ErrSelfDelegation indicates a user attempted to delegate approval
	// authority to themselves.
	ErrSelfDelegation = errors.New("cannot delegate approval to yourself")

	// ErrConcurrentUpdate indicates the optimistic version check failed:
	// another transition committed first. Callers retry against the
	// refreshed request.
	ErrConcurrentUpdate = errors.New("approval request was modified concurrently")

	// ErrInvalidConditions indicates a flow's conditions payload does not
	// have the expected shape.
	ErrInvalidConditions = errors.New("invalid flow conditions")
)

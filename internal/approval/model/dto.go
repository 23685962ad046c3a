package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateFlowDTO carries the payload for creating an approval flow.
type CreateFlowDTO struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	FlowType    FlowType     `json:"flowType"`
	Module      string       `json:"module"`
	Conditions  ConditionMap `json:"conditions,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
}

// UpdateFlowDTO carries a partial update for an approval flow. Nil fields are
// left unchanged.
type UpdateFlowDTO struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	FlowType    *FlowType     `json:"flowType,omitempty"`
	Conditions  *ConditionMap `json:"conditions,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

// CreateStepDTO carries the payload for adding a step to a flow.
type CreateStepDTO struct {
	StepOrder    int             `json:"stepOrder"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ApproverType ApproverType    `json:"approverType"`
	ApproverID   *string         `json:"approverId,omitempty"`
	ApproverRole *string         `json:"approverRole,omitempty"`
	ApproverRule json.RawMessage `json:"approverRule,omitempty"`
	RequireAll   bool            `json:"requireAll"`
	MinApprovals int             `json:"minApprovals"`
}

// UpdateStepDTO carries a partial update for a step. Nil fields are left
// unchanged.
type UpdateStepDTO struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	RequireAll   *bool   `json:"requireAll,omitempty"`
	MinApprovals *int    `json:"minApprovals,omitempty"`
}

// CreateRequestDTO carries the payload for creating an approval request
// against a flow.
type CreateRequestDTO struct {
	FlowID      uuid.UUID      `json:"flowId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId"`
	RequestedBy string         `json:"requestedBy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ActionContext carries the audit fields attached to an approve or reject.
type ActionContext struct {
	Comment   string `json:"comment"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
}

// FlowFilter narrows flow list queries. Nil fields are ignored.
type FlowFilter struct {
	Module   *string
	IsActive *bool
	Offset   *int
	Limit    *int
}

// RequestFilter narrows request list queries. Nil fields are ignored.
// Requests are always ordered by requested_at descending.
type RequestFilter struct {
	FlowID      *uuid.UUID
	EntityType  *string
	EntityID    *string
	Status      *RequestStatus
	RequestedBy *string
	Offset      *int
	Limit       *int
}

// FlowUsage is one entry of the most-used-flows ranking.
type FlowUsage struct {
	FlowID       uuid.UUID `json:"flowId"`
	FlowName     string    `json:"flowName"`
	RequestCount int       `json:"requestCount"`
}

// ApprovalStats aggregates request counts and durations for a tenant.
type ApprovalStats struct {
	Total           int                   `json:"total"`
	ByStatus        map[RequestStatus]int `json:"byStatus"`
	AvgApprovalTime time.Duration         `json:"avgApprovalTime"` // Over APPROVED requests only
	TopFlows        []FlowUsage           `json:"topFlows"`
}

// TimelineEntryType discriminates timeline entries.
type TimelineEntryType string

const (
	TimelineRequestCreated TimelineEntryType = "request_created"
	TimelineAction         TimelineEntryType = "action"
	TimelineDelegation     TimelineEntryType = "delegation"
	TimelineCompleted      TimelineEntryType = "completed"
)

// TimelineEntry is one event in a request's reconstructed history.
type TimelineEntry struct {
	Type       TimelineEntryType   `json:"type"`
	Timestamp  time.Time           `json:"timestamp"`
	Action     *ApprovalAction     `json:"action,omitempty"`
	Delegation *ApprovalDelegation `json:"delegation,omitempty"`
	Status     RequestStatus       `json:"status,omitempty"`
	Actor      string              `json:"actor,omitempty"`
}

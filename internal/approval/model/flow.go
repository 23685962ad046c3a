package model

import (
	"gorm.io/gorm"
)

// FlowType determines how a flow's steps are traversed.
type FlowType string

const (
	FlowTypeSequential  FlowType = "sequential"  // Steps are approved strictly in step_order
	FlowTypeParallel    FlowType = "parallel"    // Multiple approvers act on the same step; a quorum rule completes it
	FlowTypeConditional FlowType = "conditional" // Sequential traversal with per-step skip conditions
)

// ConditionMap holds per-step skip rules keyed by "step_{order}", plus the
// optional top-level "rules" list and "logic" selector. Each step entry maps
// a field name to either an operator object ({"operator": ..., "value": ...}),
// a list (membership test) or an expression string.
type ConditionMap map[string]any

// ApprovalFlow is a named, tenant-scoped workflow template. It owns an ordered
// collection of ApprovalSteps and is referenced by ApprovalRequests.
type ApprovalFlow struct {
	BaseModel
	TenantID    string         `gorm:"type:varchar(64);column:tenant_id;not null;index" json:"tenantId"`
	Name        string         `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	FlowType    FlowType       `gorm:"type:varchar(20);column:flow_type;not null" json:"flowType"`
	Module      string         `gorm:"type:varchar(100);column:module;not null;index" json:"module"` // Owning business domain, e.g. "orders"
	Conditions  ConditionMap   `gorm:"type:jsonb;column:conditions;serializer:json" json:"conditions,omitempty"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedBy   string         `gorm:"type:varchar(64);column:created_by;not null" json:"createdBy"`
	DeletedAt   gorm.DeletedAt `gorm:"type:timestamptz;column:deleted_at;index" json:"-"`

	// Relationships
	Steps []ApprovalStep `gorm:"foreignKey:FlowID;references:ID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

func (f *ApprovalFlow) TableName() string {
	return "approval_flows"
}

// StepConditions returns the skip-rule sub-mapping configured for the given
// step order, or nil if none is configured.
func (f *ApprovalFlow) StepConditions(stepOrder int) map[string]any {
	if f.Conditions == nil {
		return nil
	}
	conditions, ok := f.Conditions[StepConditionKey(stepOrder)].(map[string]any)
	if !ok {
		return nil
	}
	return conditions
}

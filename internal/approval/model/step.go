package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ApproverType determines how a step resolves its approver.
type ApproverType string

const (
	ApproverTypeUser    ApproverType = "user"    // A single named user approves
	ApproverTypeRole    ApproverType = "role"    // Any user holding the tenant role approves
	ApproverTypeDynamic ApproverType = "dynamic" // Approver resolved at runtime from a JSON rule
)

// StepConditionKey returns the flow conditions key for a step order,
// e.g. "step_2".
func StepConditionKey(stepOrder int) string {
	return fmt.Sprintf("step_%d", stepOrder)
}

// ApprovalStep is one authorization gate within a flow. StepOrder defines the
// traversal position; orders are unique within a flow but not necessarily
// contiguous.
type ApprovalStep struct {
	BaseModel
	FlowID       uuid.UUID       `gorm:"type:uuid;column:flow_id;not null;index:idx_steps_flow_order,unique" json:"flowId"`
	StepOrder    int             `gorm:"column:step_order;not null;index:idx_steps_flow_order,unique" json:"stepOrder"`
	Name         string          `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description  string          `gorm:"type:text;column:description" json:"description"`
	ApproverType ApproverType    `gorm:"type:varchar(20);column:approver_type;not null" json:"approverType"`
	ApproverID   *string         `gorm:"type:varchar(64);column:approver_id" json:"approverId,omitempty"`
	ApproverRole *string         `gorm:"type:varchar(100);column:approver_role" json:"approverRole,omitempty"`
	ApproverRule json.RawMessage `gorm:"type:jsonb;column:approver_rule" json:"approverRule,omitempty"`
	RequireAll   bool            `gorm:"column:require_all;not null;default:false" json:"requireAll"`
	MinApprovals int             `gorm:"column:min_approvals;not null;default:0" json:"minApprovals"`
}

func (s *ApprovalStep) TableName() string {
	return "approval_steps"
}

// Validate checks that exactly one approver-selection attribute is set and
// that it is consistent with the approver type.
func (s *ApprovalStep) Validate() error {
	if s.StepOrder <= 0 {
		return fmt.Errorf("step_order must be positive, got %d", s.StepOrder)
	}

	switch s.ApproverType {
	case ApproverTypeUser:
		if s.ApproverID == nil || *s.ApproverID == "" {
			return fmt.Errorf("approver_id is required for approver_type %q", s.ApproverType)
		}
		if s.ApproverRole != nil || len(s.ApproverRule) > 0 {
			return fmt.Errorf("approver_type %q allows only approver_id", s.ApproverType)
		}
	case ApproverTypeRole:
		if s.ApproverRole == nil || *s.ApproverRole == "" {
			return fmt.Errorf("approver_role is required for approver_type %q", s.ApproverType)
		}
		if s.ApproverID != nil || len(s.ApproverRule) > 0 {
			return fmt.Errorf("approver_type %q allows only approver_role", s.ApproverType)
		}
	case ApproverTypeDynamic:
		if len(s.ApproverRule) == 0 {
			return fmt.Errorf("approver_rule is required for approver_type %q", s.ApproverType)
		}
		if s.ApproverID != nil || s.ApproverRole != nil {
			return fmt.Errorf("approver_type %q allows only approver_rule", s.ApproverType)
		}
	default:
		return fmt.Errorf("unknown approver_type %q", s.ApproverType)
	}

	return nil
}

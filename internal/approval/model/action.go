package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionType classifies a recorded approval action.
type ActionType string

const (
	ActionTypeApprove ActionType = "approve"
	ActionTypeReject  ActionType = "reject"
	ActionTypeComment ActionType = "comment"
)

// ApprovalAction is an immutable audit record of a single approve, reject or
// comment event. Actions are append-only; they are never updated or deleted.
type ApprovalAction struct {
	BaseModel
	RequestID uuid.UUID  `gorm:"type:uuid;column:request_id;not null;index" json:"requestId"`
	Action    ActionType `gorm:"type:varchar(20);column:action_type;not null" json:"actionType"`
	StepOrder int        `gorm:"column:step_order;not null" json:"stepOrder"` // The step active when the action was taken
	Comment   string     `gorm:"type:text;column:comment" json:"comment"`
	ActedBy   string     `gorm:"type:varchar(64);column:acted_by;not null;index" json:"actedBy"`
	IPAddress string     `gorm:"type:varchar(45);column:ip_address" json:"ipAddress"`
	UserAgent string     `gorm:"type:varchar(512);column:user_agent" json:"userAgent"`
	ActedAt   time.Time  `gorm:"type:timestamptz;column:acted_at;not null" json:"actedAt"`
}

func (a *ApprovalAction) TableName() string {
	return "approval_actions"
}

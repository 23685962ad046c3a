package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of an approval request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusDelegated RequestStatus = "delegated"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected || s == RequestStatusCancelled
}

// ApprovalRequest is one instance of a flow executing against a specific
// business entity. It is created PENDING at current_step 1 and mutated only by
// the flow engine or an explicit cancel.
//
// Version is a monotonic counter used for optimistic concurrency control:
// every state-changing write is a compare-and-swap on the version the caller
// read, so at most one transition commits per concurrent race.
type ApprovalRequest struct {
	BaseModel
	TenantID        string         `gorm:"type:varchar(64);column:tenant_id;not null;index" json:"tenantId"`
	FlowID          uuid.UUID      `gorm:"type:uuid;column:flow_id;not null;index" json:"flowId"`
	Title           string         `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description     string         `gorm:"type:text;column:description" json:"description"`
	EntityType      string         `gorm:"type:varchar(100);column:entity_type;not null;index:idx_requests_entity" json:"entityType"`
	EntityID        string         `gorm:"type:varchar(64);column:entity_id;not null;index:idx_requests_entity" json:"entityId"`
	Status          RequestStatus  `gorm:"type:varchar(20);column:status;not null;index" json:"status"`
	CurrentStep     int            `gorm:"column:current_step;not null" json:"currentStep"`
	RequestedBy     string         `gorm:"type:varchar(64);column:requested_by;not null;index" json:"requestedBy"`
	RequestMetadata map[string]any `gorm:"type:jsonb;column:request_metadata;serializer:json" json:"requestMetadata,omitempty"`
	RequestedAt     time.Time      `gorm:"type:timestamptz;column:requested_at;not null" json:"requestedAt"`
	CompletedAt     *time.Time     `gorm:"type:timestamptz;column:completed_at" json:"completedAt,omitempty"`
	Version         int64          `gorm:"column:version;not null;default:0" json:"version"`

	// Relationships
	Flow        *ApprovalFlow        `gorm:"foreignKey:FlowID;references:ID" json:"-"`
	Actions     []ApprovalAction     `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
	Delegations []ApprovalDelegation `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"delegations,omitempty"`
}

func (r *ApprovalRequest) TableName() string {
	return "approval_requests"
}

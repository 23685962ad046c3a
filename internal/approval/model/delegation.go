package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalDelegation records that FromUserID handed approval authority for a
// specific request to ToUserID. IsActive allows logical revocation without
// deleting the audit trail.
type ApprovalDelegation struct {
	BaseModel
	RequestID  uuid.UUID  `gorm:"type:uuid;column:request_id;not null;index" json:"requestId"`
	FromUserID string     `gorm:"type:varchar(64);column:from_user_id;not null" json:"fromUserId"`
	ToUserID   string     `gorm:"type:varchar(64);column:to_user_id;not null;index" json:"toUserId"`
	Reason     string     `gorm:"type:text;column:reason" json:"reason"`
	ExpiresAt  *time.Time `gorm:"type:timestamptz;column:expires_at" json:"expiresAt,omitempty"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true" json:"isActive"`
}

func (d *ApprovalDelegation) TableName() string {
	return "approval_delegations"
}

// IsEffective reports whether the delegation is active and not expired at the
// given instant.
func (d *ApprovalDelegation) IsEffective(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return false
	}
	return true
}

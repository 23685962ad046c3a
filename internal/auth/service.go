// Package auth provides tenant-scoped user-role assignment lookups consumed
// by the approval engine's authorization check.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// UserRole records that a user holds a role within a tenant.
type UserRole struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);column:tenant_id;not null;index:idx_user_roles,unique" json:"tenantId"`
	UserID    string    `gorm:"type:varchar(64);column:user_id;not null;index:idx_user_roles,unique" json:"userId"`
	Role      string    `gorm:"type:varchar(100);column:role;not null;index:idx_user_roles,unique" json:"role"`
	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Service answers role membership questions against the user-role store.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth Service instance.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasRole reports whether the user holds the role within the tenant.
func (s *Service) HasRole(ctx context.Context, userID, role, tenantID string) (bool, error) {
	if userID == "" || role == "" {
		return false, nil
	}

	var assignment UserRole
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND role = ?", tenantID, userID, role).
		First(&assignment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		slog.Error("failed to look up user role",
			"tenant_id", tenantID,
			"user_id", userID,
			"role", role,
			"error", result.Error)
		return false, fmt.Errorf("failed to look up user role: %w", result.Error)
	}

	return true, nil
}

// AssignRole grants a role to a user within a tenant. Duplicate assignments
// are rejected by the unique index.
func (s *Service) AssignRole(ctx context.Context, userID, role, tenantID string) error {
	assignment := UserRole{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return fmt.Errorf("failed to assign role %q to user %s: %w", role, userID, err)
	}
	return nil
}

// RevokeRole removes a role assignment.
func (s *Service) RevokeRole(ctx context.Context, userID, role, tenantID string) error {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND role = ?", tenantID, userID, role).
		Delete(&UserRole{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke role %q from user %s: %w", role, userID, result.Error)
	}
	return nil
}

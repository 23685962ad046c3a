// Package notification persists in-app notifications for users. The approval
// service calls it fire-and-forget: delivery failures are logged by the
// caller and never affect approval state.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is one in-app notification addressed to a user.
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	TenantID   string         `gorm:"type:varchar(64);column:tenant_id;not null;index" json:"tenantId"`
	UserID     string         `gorm:"type:varchar(64);column:user_id;not null;index" json:"userId"`
	Title      string         `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Message    string         `gorm:"type:text;column:message" json:"message"`
	Type       string         `gorm:"type:varchar(50);column:notification_type;not null" json:"notificationType"`
	EntityType string         `gorm:"type:varchar(100);column:entity_type" json:"entityType"`
	EntityID   string         `gorm:"type:varchar(64);column:entity_id" json:"entityId"`
	Metadata   map[string]any `gorm:"type:jsonb;column:metadata;serializer:json" json:"metadata,omitempty"`
	IsRead     bool           `gorm:"column:is_read;not null;default:false" json:"isRead"`
	CreatedAt  time.Time      `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns a random UUID if the ID is not already set.
func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewRandom()
	}
	return
}

// Service stores notifications.
type Service struct {
	db *gorm.DB
}

// NewService creates a notification Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateNotification persists a notification for a user.
func (s *Service) CreateNotification(ctx context.Context, tenantID, userID, title, message, notificationType, entityType, entityID string, metadata map[string]any) error {
	n := Notification{
		TenantID:   tenantID,
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       notificationType,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification for user %s: %w", userID, err)
	}
	return nil
}

// ListForUser retrieves a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, tenantID, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []Notification
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", result.Error)
	}
	return notifications, nil
}

// MarkRead marks a notification read.
func (s *Service) MarkRead(ctx context.Context, tenantID string, notificationID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND tenant_id = ?", notificationID, tenantID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID, result.Error)
	}
	return nil
}

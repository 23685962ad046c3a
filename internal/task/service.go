// Package task persists review tasks assigned to approvers. Like
// notifications, task creation on the approval path is fire-and-forget.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status of a review task.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ReviewTask is one unit of work assigned to an approver.
type ReviewTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	TenantID    string         `gorm:"type:varchar(64);column:tenant_id;not null;index" json:"tenantId"`
	Title       string         `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	TaskType    string         `gorm:"type:varchar(50);column:task_type;not null" json:"taskType"`
	AssignedTo  string         `gorm:"type:varchar(64);column:assigned_to;not null;index" json:"assignedTo"`
	Status      Status         `gorm:"type:varchar(20);column:status;not null" json:"status"`
	Metadata    map[string]any `gorm:"type:jsonb;column:metadata;serializer:json" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

func (ReviewTask) TableName() string {
	return "review_tasks"
}

// BeforeCreate assigns a random UUID if the ID is not already set.
func (t *ReviewTask) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewRandom()
	}
	return
}

// Service stores review tasks.
type Service struct {
	db *gorm.DB
}

// NewService creates a task Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateTask persists an open review task assigned to a user.
func (s *Service) CreateTask(ctx context.Context, tenantID, title, description, taskType, assignedTo string, metadata map[string]any) (*ReviewTask, error) {
	t := ReviewTask{
		TenantID:    tenantID,
		Title:       title,
		Description: description,
		TaskType:    taskType,
		AssignedTo:  assignedTo,
		Status:      StatusOpen,
		Metadata:    metadata,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to create review task for user %s: %w", assignedTo, err)
	}
	return &t, nil
}

// ListForUser retrieves a user's open tasks, newest first.
func (s *Service) ListForUser(ctx context.Context, tenantID, userID string, limit int) ([]ReviewTask, error) {
	if limit <= 0 {
		limit = 50
	}
	var tasks []ReviewTask
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND assigned_to = ? AND status = ?", tenantID, userID, StatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list review tasks: %w", result.Error)
	}
	return tasks, nil
}

// Complete marks a task completed.
func (s *Service) Complete(ctx context.Context, tenantID string, taskID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&ReviewTask{}).
		Where("id = ? AND tenant_id = ?", taskID, tenantID).
		Update("status", StatusCompleted)
	if result.Error != nil {
		return fmt.Errorf("failed to complete review task %s: %w", taskID, result.Error)
	}
	return nil
}

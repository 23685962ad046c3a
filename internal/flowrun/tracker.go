// Package flowrun mirrors approval outcomes into an external execution
// tracking record. The tracker is an optional collaborator: the approval
// service works identically without it, and all synchronization failures are
// swallowed and logged on the approval side.
package flowrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status of a tracked flow run.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrRunNotFound indicates no flow run is tracked for the entity.
var ErrRunNotFound = errors.New("flow run not found")

// FlowRun is one tracked execution linked to a business entity.
type FlowRun struct {
	ID         uuid.UUID  `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	TenantID   string     `gorm:"type:varchar(64);column:tenant_id;not null;index" json:"tenantId"`
	EntityType string     `gorm:"type:varchar(100);column:entity_type;not null;index:idx_flow_runs_entity" json:"entityType"`
	EntityID   string     `gorm:"type:varchar(64);column:entity_id;not null;index:idx_flow_runs_entity" json:"entityId"`
	Status     Status     `gorm:"type:varchar(20);column:status;not null" json:"status"`
	StartedAt  *time.Time `gorm:"type:timestamptz;column:started_at" json:"startedAt,omitempty"`
	EndedAt    *time.Time `gorm:"type:timestamptz;column:ended_at" json:"endedAt,omitempty"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

func (FlowRun) TableName() string {
	return "flow_runs"
}

// BeforeCreate assigns a random UUID if the ID is not already set.
func (r *FlowRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewRandom()
	}
	return
}

// Tracker persists flow runs.
type Tracker struct {
	db *gorm.DB
}

// NewTracker creates a flow-run Tracker.
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// CreateFlowRun records a new run for an entity.
func (t *Tracker) CreateFlowRun(ctx context.Context, tenantID, entityType, entityID string) (*FlowRun, error) {
	run := FlowRun{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     StatusCreated,
	}
	if err := t.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create flow run: %w", err)
	}
	return &run, nil
}

// GetFlowRunByEntity returns the most recent run tracked for an entity.
func (t *Tracker) GetFlowRunByEntity(ctx context.Context, tenantID, entityType, entityID string) (*FlowRun, error) {
	var run FlowRun
	result := t.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("created_at DESC").
		First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, entityType, entityID)
		}
		return nil, fmt.Errorf("failed to retrieve flow run: %w", result.Error)
	}
	return &run, nil
}

// StartFlowRun marks the entity's run as running.
func (t *Tracker) StartFlowRun(ctx context.Context, tenantID, entityType, entityID string) error {
	now := time.Now().UTC()
	return t.transition(ctx, tenantID, entityType, entityID, map[string]any{
		"status":     StatusRunning,
		"started_at": &now,
	})
}

// CompleteFlowRun marks the entity's run as completed.
func (t *Tracker) CompleteFlowRun(ctx context.Context, tenantID, entityType, entityID string) error {
	now := time.Now().UTC()
	return t.transition(ctx, tenantID, entityType, entityID, map[string]any{
		"status":   StatusCompleted,
		"ended_at": &now,
	})
}

// FailFlowRun marks the entity's run as failed.
func (t *Tracker) FailFlowRun(ctx context.Context, tenantID, entityType, entityID string) error {
	now := time.Now().UTC()
	return t.transition(ctx, tenantID, entityType, entityID, map[string]any{
		"status":   StatusFailed,
		"ended_at": &now,
	})
}

func (t *Tracker) transition(ctx context.Context, tenantID, entityType, entityID string, updates map[string]any) error {
	run, err := t.GetFlowRunByEntity(ctx, tenantID, entityType, entityID)
	if err != nil {
		return err
	}
	result := t.db.WithContext(ctx).
		Model(&FlowRun{}).
		Where("id = ?", run.ID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update flow run %s: %w", run.ID, result.Error)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/erpcore/backend/internal/approval"
	"github.com/erpcore/backend/internal/approval/model"
)

// statsScanLimit bounds the in-memory aggregation window for tenant stats.
const statsScanLimit = 10000

// GetApprovalStats aggregates a tenant's requests in memory: counts per
// status, the average approval duration over APPROVED requests and the five
// most-used flows by request count. The scan is bounded at statsScanLimit
// requests, newest first.
func (s *ApprovalService) GetApprovalStats(ctx context.Context, tenantID string) (*model.ApprovalStats, error) {
	requests, err := s.store.ScanRequests(ctx, tenantID, statsScanLimit)
	if err != nil {
		return nil, err
	}

	stats := &model.ApprovalStats{
		Total:    len(requests),
		ByStatus: make(map[model.RequestStatus]int),
	}

	var approvedCount int
	var totalDuration time.Duration
	usage := make(map[uuid.UUID]int)

	for i := range requests {
		request := &requests[i]
		stats.ByStatus[request.Status]++
		usage[request.FlowID]++

		if request.Status == model.RequestStatusApproved && request.CompletedAt != nil {
			totalDuration += request.CompletedAt.Sub(request.RequestedAt)
			approvedCount++
		}
	}
	if approvedCount > 0 {
		stats.AvgApprovalTime = totalDuration / time.Duration(approvedCount)
	}

	stats.TopFlows = s.topFlows(ctx, tenantID, usage, 5)
	return stats, nil
}

// topFlows ranks flows by request count, resolving names where the flow
// still exists. Deleted flows keep their id with an empty name.
func (s *ApprovalService) topFlows(ctx context.Context, tenantID string, usage map[uuid.UUID]int, n int) []model.FlowUsage {
	ranked := make([]model.FlowUsage, 0, len(usage))
	for flowID, count := range usage {
		entry := model.FlowUsage{FlowID: flowID, RequestCount: count}
		if flow, err := s.loadFlow(ctx, tenantID, flowID); err == nil {
			entry.FlowName = flow.Name
		}
		ranked = append(ranked, entry)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RequestCount != ranked[j].RequestCount {
			return ranked[i].RequestCount > ranked[j].RequestCount
		}
		return ranked[i].FlowID.String() < ranked[j].FlowID.String()
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetRequestTimeline reconstructs a request's history: the creation marker,
// every recorded action and delegation, and the completion marker, merged
// and sorted ascending by timestamp.
func (s *ApprovalService) GetRequestTimeline(ctx context.Context, tenantID string, requestID uuid.UUID) ([]model.TimelineEntry, error) {
	request, err := s.store.GetRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.ListActions(ctx, requestID)
	if err != nil {
		return nil, err
	}
	delegations, err := s.store.ListDelegations(ctx, requestID)
	if err != nil {
		return nil, err
	}

	timeline := make([]model.TimelineEntry, 0, len(actions)+len(delegations)+2)
	timeline = append(timeline, model.TimelineEntry{
		Type:      model.TimelineRequestCreated,
		Timestamp: request.RequestedAt,
		Actor:     request.RequestedBy,
	})
	for i := range actions {
		timeline = append(timeline, model.TimelineEntry{
			Type:      model.TimelineAction,
			Timestamp: actions[i].ActedAt,
			Action:    &actions[i],
			Actor:     actions[i].ActedBy,
		})
	}
	for i := range delegations {
		timeline = append(timeline, model.TimelineEntry{
			Type:       model.TimelineDelegation,
			Timestamp:  delegations[i].CreatedAt,
			Delegation: &delegations[i],
			Actor:      delegations[i].FromUserID,
		})
	}
	if request.CompletedAt != nil {
		timeline = append(timeline, model.TimelineEntry{
			Type:      model.TimelineCompleted,
			Timestamp: *request.CompletedAt,
			Status:    request.Status,
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})
	return timeline, nil
}

// GetOrCreateRequestByEntity returns the existing pending request for the
// entity if one exists. Otherwise, when autoCreate is set, it validates the
// target flow and creates a new request; createDTO must then carry a flow id
// and title.
func (s *ApprovalService) GetOrCreateRequestByEntity(
	ctx context.Context,
	tenantID, entityType, entityID string,
	autoCreate bool,
	createDTO *model.CreateRequestDTO,
) (*model.ApprovalRequest, error) {
	request, err := s.store.FindPendingRequestByEntity(ctx, tenantID, entityType, entityID)
	if err == nil {
		return request, nil
	}
	if !errors.Is(err, approval.ErrRequestNotFound) {
		return nil, err
	}

	if !autoCreate {
		return nil, err
	}
	if createDTO == nil || createDTO.FlowID == uuid.Nil || createDTO.Title == "" {
		return nil, errors.New("auto-create requires a flow id and title")
	}

	dto := *createDTO
	dto.EntityType = entityType
	dto.EntityID = entityID
	return s.CreateApprovalRequest(ctx, tenantID, dto)
}

package queries

import (
	"context"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

// AssignmentDTO is a data transfer object for assignments.
type AssignmentDTO struct {
	ID         int64         `json:"id"`
	TaskID     int64         `json:"task_id"`
	ResourceID int64         `json:"resource_id"`
	Start      domain.Date   `json:"start_date"`
	End        domain.Date   `json:"end_date"`
	Status     domain.Status `json:"status"`
}

// ToAssignmentDTO converts a domain assignment.
func ToAssignmentDTO(a *domain.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:         a.ID,
		TaskID:     a.TaskID,
		ResourceID: a.ResourceID,
		Start:      a.Start,
		End:        a.End,
		Status:     a.Status,
	}
}

// ResourceScheduleQuery asks for the assignments of one resource.
// An empty Status means every status.
type ResourceScheduleQuery struct {
	ResourceID int64
	Status     domain.Status
}

// ResourceScheduleHandler handles the ResourceScheduleQuery.
type ResourceScheduleHandler struct {
	resources   domain.ResourceRepository
	assignments domain.AssignmentRepository
}

// NewResourceScheduleHandler creates a new ResourceScheduleHandler.
func NewResourceScheduleHandler(resources domain.ResourceRepository, assignments domain.AssignmentRepository) *ResourceScheduleHandler {
	return &ResourceScheduleHandler{resources: resources, assignments: assignments}
}

// Handle executes the ResourceScheduleQuery. Results are ordered by start.
func (h *ResourceScheduleHandler) Handle(ctx context.Context, query ResourceScheduleQuery) ([]AssignmentDTO, error) {
	if _, err := h.resources.FindByID(ctx, query.ResourceID); err != nil {
		return nil, err
	}
	found, err := h.assignments.ListByResource(ctx, query.ResourceID, query.Status)
	if err != nil {
		return nil, err
	}

	dtos := make([]AssignmentDTO, len(found))
	for i, a := range found {
		dtos[i] = ToAssignmentDTO(a)
	}
	return dtos, nil
}

// TaskAssignmentHandler looks up the assignment of a task.
type TaskAssignmentHandler struct {
	assignments domain.AssignmentRepository
}

// NewTaskAssignmentHandler creates a new TaskAssignmentHandler.
func NewTaskAssignmentHandler(assignments domain.AssignmentRepository) *TaskAssignmentHandler {
	return &TaskAssignmentHandler{assignments: assignments}
}

// Handle returns domain.ErrNotFound when the task has no assignment.
func (h *TaskAssignmentHandler) Handle(ctx context.Context, taskID int64) (*AssignmentDTO, error) {
	a, err := h.assignments.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	dto := ToAssignmentDTO(a)
	return &dto, nil
}

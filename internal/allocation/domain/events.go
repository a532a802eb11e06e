package domain

import (
	shared "github.com/felixgeelhaar/allot/internal/shared/domain"
)

// Routing keys for assignment events.
const (
	RoutingKeyAssignmentCreated   = "assignment.created"
	RoutingKeyAssignmentUpdated   = "assignment.updated"
	RoutingKeyAssignmentCompleted = "assignment.completed"
	RoutingKeyAssignmentRemoved   = "assignment.removed"
)

// AssignmentCreated is emitted when an assignment is committed.
type AssignmentCreated struct {
	shared.EventHeader
	AssignmentID int64 `json:"assignment_id"`
	TaskID       int64 `json:"task_id"`
	ResourceID   int64 `json:"resource_id"`
	Start        Date  `json:"start_date"`
	End          Date  `json:"end_date"`
}

func NewAssignmentCreated(a *Assignment) *AssignmentCreated {
	return &AssignmentCreated{
		EventHeader:  shared.NewEventHeader(AggregateType, a.ID, RoutingKeyAssignmentCreated),
		AssignmentID: a.ID,
		TaskID:       a.TaskID,
		ResourceID:   a.ResourceID,
		Start:        a.Start,
		End:          a.End,
	}
}

// AssignmentUpdated is emitted when an assignment is moved.
type AssignmentUpdated struct {
	shared.EventHeader
	AssignmentID       int64 `json:"assignment_id"`
	TaskID             int64 `json:"task_id"`
	ResourceID         int64 `json:"resource_id"`
	Start              Date  `json:"start_date"`
	End                Date  `json:"end_date"`
	PreviousResourceID int64 `json:"previous_resource_id"`
	PreviousStart      Date  `json:"previous_start_date"`
	PreviousEnd        Date  `json:"previous_end_date"`
}

func NewAssignmentUpdated(previous, current *Assignment) *AssignmentUpdated {
	return &AssignmentUpdated{
		EventHeader:        shared.NewEventHeader(AggregateType, current.ID, RoutingKeyAssignmentUpdated),
		AssignmentID:       current.ID,
		TaskID:             current.TaskID,
		ResourceID:         current.ResourceID,
		Start:              current.Start,
		End:                current.End,
		PreviousResourceID: previous.ResourceID,
		PreviousStart:      previous.Start,
		PreviousEnd:        previous.End,
	}
}

// AssignmentCompleted is emitted when an assignment reaches COMPLETED.
type AssignmentCompleted struct {
	shared.EventHeader
	AssignmentID int64 `json:"assignment_id"`
	TaskID       int64 `json:"task_id"`
	ResourceID   int64 `json:"resource_id"`
	End          Date  `json:"end_date"`
}

func NewAssignmentCompleted(a *Assignment) *AssignmentCompleted {
	return &AssignmentCompleted{
		EventHeader:  shared.NewEventHeader(AggregateType, a.ID, RoutingKeyAssignmentCompleted),
		AssignmentID: a.ID,
		TaskID:       a.TaskID,
		ResourceID:   a.ResourceID,
		End:          a.End,
	}
}

// AssignmentRemoved is emitted when an assignment is deleted, directly or
// because its task or project was deleted.
type AssignmentRemoved struct {
	shared.EventHeader
	AssignmentID int64  `json:"assignment_id"`
	TaskID       int64  `json:"task_id"`
	ResourceID   int64  `json:"resource_id"`
	Reason       string `json:"reason"`
}

func NewAssignmentRemoved(a *Assignment, reason string) *AssignmentRemoved {
	return &AssignmentRemoved{
		EventHeader:  shared.NewEventHeader(AggregateType, a.ID, RoutingKeyAssignmentRemoved),
		AssignmentID: a.ID,
		TaskID:       a.TaskID,
		ResourceID:   a.ResourceID,
		Reason:       reason,
	}
}

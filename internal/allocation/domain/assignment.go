package domain

import (
	shared "github.com/felixgeelhaar/allot/internal/shared/domain"
)

// AggregateType names assignments in events and the outbox.
const AggregateType = "Assignment"

// Assignment commits one resource to one task over the inclusive range
// [Start, End].
type Assignment struct {
	shared.Recorder

	ID         int64
	TaskID     int64
	ResourceID int64
	Start      Date
	End        Date
	Status     Status
}

// NewAssignment creates an ASSIGNED assignment that is not yet stored.
func NewAssignment(taskID, resourceID int64, start, end Date) (*Assignment, error) {
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}
	return &Assignment{
		TaskID:     taskID,
		ResourceID: resourceID,
		Start:      start,
		End:        end,
		Status:     StatusAssigned,
	}, nil
}

// Stored records the id given by storage and the creation event.
func (a *Assignment) Stored(id int64) {
	a.ID = id
	a.Record(NewAssignmentCreated(a))
}

// Active reports whether the assignment still occupies its resource.
func (a *Assignment) Active() bool {
	return a.Status == StatusAssigned
}

// Overlaps reports whether [start, end] intersects the assignment, both
// ranges inclusive.
func (a *Assignment) Overlaps(start, end Date) bool {
	return !a.Start.After(end) && !a.End.Before(start)
}

// Reschedule moves the assignment to another resource and/or range.
func (a *Assignment) Reschedule(resourceID int64, start, end Date) error {
	if a.Status == StatusCompleted {
		return ErrAssignmentCompleted
	}
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if a.ResourceID == resourceID && a.Start.Equal(start) && a.End.Equal(end) {
		return nil
	}
	previous := *a
	a.ResourceID = resourceID
	a.Start = start
	a.End = end
	a.Record(NewAssignmentUpdated(&previous, a))
	return nil
}

// Complete closes the assignment. The end defaults to today when not given.
func (a *Assignment) Complete(today Date, end Date) error {
	if a.Status == StatusCompleted {
		return nil
	}
	if end.IsZero() {
		end = today
	}
	if end.Before(a.Start) {
		return ErrEndBeforeStart
	}
	a.End = end
	a.Status = StatusCompleted
	a.Record(NewAssignmentCompleted(a))
	return nil
}

// Reopen is always refused for completed assignments.
func (a *Assignment) Reopen() error {
	if a.Status == StatusCompleted {
		return ErrAssignmentCompleted
	}
	return nil
}

// Remove records that the assignment is being deleted.
func (a *Assignment) Remove(reason string) {
	a.Record(NewAssignmentRemoved(a, reason))
}

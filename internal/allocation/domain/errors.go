package domain

import (
	"errors"
	"fmt"
)

// Entity level errors.
var (
	ErrEndBeforeStart      = errors.New("end date is before start date")
	ErrTaskCompleted       = errors.New("task is completed")
	ErrTaskDeleted         = errors.New("task is deleted")
	ErrAssignmentCompleted = errors.New("completed assignment cannot be reassigned")
	ErrNotFound            = errors.New("not found")
)

// Batch failure kinds. Every *SchedulingError matches exactly one of them
// with errors.Is.
var (
	ErrInputShape          = errors.New("invalid input")
	ErrInfeasible          = errors.New("no feasible assignment")
	ErrDuplicateAssignment = errors.New("task already has an assignment")
	ErrConflict            = errors.New("assignment conflicts with existing constraints")
	ErrPersistence         = errors.New("persistence failure")
)

// ConflictReason explains why an explicit slot was refused.
type ConflictReason string

const (
	ReasonNone                ConflictReason = ""
	ReasonSkillMismatch       ConflictReason = "skill_mismatch"
	ReasonOutsideAvailability ConflictReason = "outside_availability"
	ReasonOverlap             ConflictReason = "overlap"
	ReasonOutsideTaskWindow   ConflictReason = "outside_task_window"
)

// SchedulingError reports why a batch failed and which task caused it.
// TaskID is zero when the failure is not tied to one task.
type SchedulingError struct {
	Kind    error
	TaskID  int64
	Reason  ConflictReason
	Message string
	Err     error
}

func (e *SchedulingError) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = e.Message
	}
	if e.TaskID != 0 {
		msg = fmt.Sprintf("task %d: %s", e.TaskID, msg)
	}
	if e.Reason != ReasonNone {
		msg += " (" + string(e.Reason) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the failure kind.
func (e *SchedulingError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap exposes the underlying cause, if any.
func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// InputShapeError reports a malformed request.
func InputShapeError(taskID int64, format string, args ...any) *SchedulingError {
	return &SchedulingError{Kind: ErrInputShape, TaskID: taskID, Message: fmt.Sprintf(format, args...)}
}

// InfeasibleError reports that no resource can take the task.
func InfeasibleError(taskID int64) *SchedulingError {
	return &SchedulingError{Kind: ErrInfeasible, TaskID: taskID, Message: "no resource can take the task"}
}

// DuplicateAssignmentError reports a task that already has an assignment.
func DuplicateAssignmentError(taskID int64) *SchedulingError {
	return &SchedulingError{Kind: ErrDuplicateAssignment, TaskID: taskID, Message: "task already has an assignment"}
}

// ConflictError reports an explicit slot that cannot be honoured.
func ConflictError(taskID int64, reason ConflictReason) *SchedulingError {
	return &SchedulingError{Kind: ErrConflict, TaskID: taskID, Reason: reason, Message: "requested slot cannot be assigned"}
}

// PersistenceError wraps a storage failure.
func PersistenceError(taskID int64, err error) *SchedulingError {
	return &SchedulingError{Kind: ErrPersistence, TaskID: taskID, Message: "storage failure", Err: err}
}

// AsSchedulingError extracts a *SchedulingError from err.
func AsSchedulingError(err error) (*SchedulingError, bool) {
	var se *SchedulingError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

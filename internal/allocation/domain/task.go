package domain

// Task is a unit of work with a duration in whole days and an optional
// [Start, End] window. Required skills may be empty.
type Task struct {
	ID         int64
	ProjectID  int64
	Name       string
	Skills     SkillSet
	Estimation int
	Start      Date
	End        Date
	Completed  bool
	Deleted    bool
}

// Open reports whether the task can still receive an assignment.
func (t Task) Open() bool {
	return !t.Completed && !t.Deleted
}

// WithinWindow reports whether [start, end] respects the task window.
func (t Task) WithinWindow(start, end Date) bool {
	if !t.Start.IsZero() && start.Before(t.Start) {
		return false
	}
	if !t.End.IsZero() && end.After(t.End) {
		return false
	}
	return true
}

// Complete marks the task done. Completing twice is a no-op.
func (t *Task) Complete() error {
	if t.Deleted {
		return ErrTaskDeleted
	}
	t.Completed = true
	return nil
}

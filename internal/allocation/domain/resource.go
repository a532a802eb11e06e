package domain

// Resource is a skilled actor that can hold assignments. AvailableUntil is
// zero when availability is open ended.
type Resource struct {
	ID             int64
	Name           string
	Skills         SkillSet
	AvailableFrom  Date
	AvailableUntil Date
}

// Available reports whether [start, end] lies inside the availability window.
func (r Resource) Available(start, end Date) bool {
	if !r.AvailableFrom.IsZero() && start.Before(r.AvailableFrom) {
		return false
	}
	if !r.AvailableUntil.IsZero() && end.After(r.AvailableUntil) {
		return false
	}
	return true
}

// CanTakeWindow reports whether the resource's availability is compatible
// with the task's own window: it must be available by the task start and,
// when both ends are known, until the task end.
func (r Resource) CanTakeWindow(t Task) bool {
	if !t.Start.IsZero() && r.AvailableFrom.After(t.Start) {
		return false
	}
	if !t.End.IsZero() && !r.AvailableUntil.IsZero() && r.AvailableUntil.Before(t.End) {
		return false
	}
	return true
}

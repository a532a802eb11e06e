package domain

// Project groups tasks. Deleted projects are kept as tombstones.
type Project struct {
	ID        int64
	Name      string
	Start     Date
	End       Date
	Completed bool
	Deleted   bool
}

// Schedulable reports whether tasks of the project can still be planned.
func (p Project) Schedulable() bool {
	return !p.Completed && !p.Deleted
}

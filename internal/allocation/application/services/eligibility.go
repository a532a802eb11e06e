package services

import "github.com/felixgeelhaar/allot/internal/allocation/domain"

// Eligible returns, in input order, the resources that have every required
// skill of the task and whose availability is compatible with the task
// window. A non-zero only restricts the result to that resource id.
func Eligible(task domain.Task, resources []domain.Resource, only int64) []domain.Resource {
	var out []domain.Resource
	for _, r := range resources {
		if only != 0 && r.ID != only {
			continue
		}
		if !r.Skills.Covers(task.Skills) {
			continue
		}
		if !r.CanTakeWindow(task) {
			continue
		}
		out = append(out, r)
	}
	return out
}

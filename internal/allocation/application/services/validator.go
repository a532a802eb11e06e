package services

import "github.com/felixgeelhaar/allot/internal/allocation/domain"

// CheckAssignment returns why resource cannot take task over [start, end],
// or ReasonNone. The commitment with id excluding is ignored so an
// assignment can be validated against its own resource when edited.
func CheckAssignment(resource domain.Resource, task domain.Task, start, end domain.Date, timeline []Commitment, excluding int64) domain.ConflictReason {
	if !resource.Skills.Covers(task.Skills) {
		return domain.ReasonSkillMismatch
	}
	if !resource.Available(start, end) {
		return domain.ReasonOutsideAvailability
	}
	for _, c := range timeline {
		if excluding != 0 && c.AssignmentID == excluding {
			continue
		}
		if c.Overlaps(start, end) {
			return domain.ReasonOverlap
		}
	}
	return domain.ReasonNone
}

// CanAssign is CheckAssignment reduced to a yes/no answer.
func CanAssign(resource domain.Resource, task domain.Task, start, end domain.Date, timeline []Commitment, excluding int64) bool {
	return CheckAssignment(resource, task, start, end, timeline, excluding) == domain.ReasonNone
}

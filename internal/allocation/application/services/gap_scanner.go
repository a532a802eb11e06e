package services

import "github.com/felixgeelhaar/allot/internal/allocation/domain"

// Slot is a proposed inclusive range on one resource.
type Slot struct {
	ResourceID int64
	Start      domain.Date
	End        domain.Date
}

// EarliestSlot finds the first free span of task.Estimation days on the
// resource, starting no earlier than tomorrow, the task start and the
// resource's availability start. The timeline must be sorted by start.
// ok is false when the span cannot end inside the task window or the
// resource's availability.
func EarliestSlot(task domain.Task, resource domain.Resource, timeline []Commitment, today domain.Date) (slot Slot, ok bool) {
	duration := task.Estimation

	floor := today
	if !task.Start.IsZero() {
		floor = domain.MaxDate(floor, task.Start.AddDays(-1))
	}
	if !resource.AvailableFrom.IsZero() {
		floor = domain.MaxDate(floor, resource.AvailableFrom.AddDays(-1))
	}

	// Commitments that ended before floor-duration cannot affect the search.
	horizon := floor.AddDays(-duration)
	window := make([]Commitment, 0, len(timeline))
	for _, c := range timeline {
		if !c.End.Before(horizon) {
			window = append(window, c)
		}
	}

	cursor := today
	for _, c := range window {
		if !c.Start.After(today) && !c.End.Before(today) {
			cursor = c.End
			break
		}
	}
	cursor = domain.MaxDate(cursor, floor)

	for _, c := range window {
		// A candidate at cursor+1 occupies [cursor+1, cursor+1+duration].
		if c.Start.After(cursor.AddDays(duration + 1)) {
			break
		}
		if c.End.After(cursor) {
			cursor = c.End
		}
		if !task.End.IsZero() && !cursor.Before(task.End) {
			return Slot{}, false
		}
	}

	start := cursor.AddDays(1)
	end := start.AddDays(duration)
	if !task.End.IsZero() && end.After(task.End) {
		return Slot{}, false
	}
	if !resource.AvailableUntil.IsZero() && end.After(resource.AvailableUntil) {
		return Slot{}, false
	}
	return Slot{ResourceID: resource.ID, Start: start, End: end}, true
}

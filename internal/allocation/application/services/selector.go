package services

import "github.com/felixgeelhaar/allot/internal/allocation/domain"

// Timelines gives the gap scanner each resource's commitments.
type Timelines interface {
	Timeline(resourceID int64) []Commitment
}

// SelectEarliest scans the eligible resources in order and returns the slot
// with the earliest start. The first resource wins ties, and a slot starting
// tomorrow ends the scan since nothing can start sooner.
func SelectEarliest(task domain.Task, resources []domain.Resource, timelines Timelines, today domain.Date, only int64) (Slot, bool) {
	tomorrow := today.AddDays(1)

	var (
		best  Slot
		found bool
	)
	for _, r := range Eligible(task, resources, only) {
		slot, ok := EarliestSlot(task, r, timelines.Timeline(r.ID), today)
		if !ok {
			continue
		}
		if slot.Start.Equal(tomorrow) {
			return slot, true
		}
		if !found || slot.Start.Before(best.Start) {
			best, found = slot, true
		}
	}
	return best, found
}

// Package services holds the pure scheduling algorithms. Nothing here touches
// storage; callers load data, run the algorithms and persist the outcome.
package services

import (
	"maps"
	"slices"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

// Commitment is an ASSIGNED range on a resource, either stored or planned
// earlier in the same batch. Planned commitments have no AssignmentID.
type Commitment struct {
	AssignmentID int64
	TaskID       int64
	ResourceID   int64
	Start        domain.Date
	End          domain.Date
}

// Overlaps reports whether [start, end] intersects the commitment.
func (c Commitment) Overlaps(start, end domain.Date) bool {
	return !c.Start.After(end) && !c.End.Before(start)
}

// Ledger tracks resource timelines and which tasks already have an
// assignment while a batch is simulated.
type Ledger struct {
	timelines map[int64][]Commitment
	assigned  map[int64]struct{}
}

// NewLedger seeds a ledger. active are the ASSIGNED assignments that occupy
// resources; existing are assignments of any status for the batch's tasks.
func NewLedger(active, existing []*domain.Assignment) *Ledger {
	l := &Ledger{
		timelines: make(map[int64][]Commitment),
		assigned:  make(map[int64]struct{}),
	}
	for _, a := range active {
		if !a.Active() {
			continue
		}
		l.timelines[a.ResourceID] = append(l.timelines[a.ResourceID], Commitment{
			AssignmentID: a.ID,
			TaskID:       a.TaskID,
			ResourceID:   a.ResourceID,
			Start:        a.Start,
			End:          a.End,
		})
		l.assigned[a.TaskID] = struct{}{}
	}
	for _, a := range existing {
		l.assigned[a.TaskID] = struct{}{}
	}
	for id := range l.timelines {
		sortTimeline(l.timelines[id])
	}
	return l
}

// Timeline returns the resource's commitments by start date then id.
func (l *Ledger) Timeline(resourceID int64) []Commitment {
	return l.timelines[resourceID]
}

// HasAssignment reports whether the task is already assigned.
func (l *Ledger) HasAssignment(taskID int64) bool {
	_, ok := l.assigned[taskID]
	return ok
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		timelines: make(map[int64][]Commitment, len(l.timelines)),
		assigned:  maps.Clone(l.assigned),
	}
	for id, tl := range l.timelines {
		c.timelines[id] = slices.Clone(tl)
	}
	return c
}

// Commit records a planned assignment.
func (l *Ledger) Commit(c Commitment) {
	tl := append(l.timelines[c.ResourceID], c)
	sortTimeline(tl)
	l.timelines[c.ResourceID] = tl
	l.assigned[c.TaskID] = struct{}{}
}

func sortTimeline(tl []Commitment) {
	slices.SortStableFunc(tl, func(a, b Commitment) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return compareIDs(a.AssignmentID, b.AssignmentID)
	})
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

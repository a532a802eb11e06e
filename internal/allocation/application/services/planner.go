package services

import (
	"log/slog"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

// Item is one task of a batch. ResourceID zero lets the planner choose.
// Start and End are either both set or both zero.
type Item struct {
	TaskID     int64
	ResourceID int64
	Start      domain.Date
	End        domain.Date
}

// Explicit reports whether the item carries its own dates.
func (i Item) Explicit() bool {
	return !i.Start.IsZero() && !i.End.IsZero()
}

// PlannedAssignment is the outcome for one task.
type PlannedAssignment struct {
	TaskID     int64       `json:"task_id"`
	ResourceID int64       `json:"resource_id"`
	Start      domain.Date `json:"start_date"`
	End        domain.Date `json:"end_date"`
}

// Snapshot is everything a batch needs, loaded up front. Resources must be
// ordered by id and Tasks must contain every item's task.
type Snapshot struct {
	Today     domain.Date
	Resources []domain.Resource
	Tasks     map[int64]domain.Task
	Ledger    *Ledger
}

// Resource looks up a loaded resource.
func (s *Snapshot) Resource(id int64) (domain.Resource, bool) {
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Resource{}, false
}

// Planner runs a batch against a snapshot, one task at a time in order.
// Each accepted task is committed to the snapshot's ledger so later tasks
// see it.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// Run plans every item or fails on the first one that cannot be placed.
func (p *Planner) Run(snapshot *Snapshot, items []Item) ([]PlannedAssignment, error) {
	planned := make([]PlannedAssignment, 0, len(items))
	for _, item := range items {
		result, err := p.planOne(snapshot, item)
		if err != nil {
			p.logger.Debug("batch item rejected",
				"task_id", item.TaskID,
				"resource_id", item.ResourceID,
				"error", err,
			)
			return nil, err
		}
		snapshot.Ledger.Commit(Commitment{
			TaskID:     result.TaskID,
			ResourceID: result.ResourceID,
			Start:      result.Start,
			End:        result.End,
		})
		planned = append(planned, result)
	}
	return planned, nil
}

func (p *Planner) planOne(snapshot *Snapshot, item Item) (PlannedAssignment, error) {
	task, ok := snapshot.Tasks[item.TaskID]
	if !ok {
		return PlannedAssignment{}, domain.InputShapeError(item.TaskID, "task %d is not schedulable", item.TaskID)
	}
	result, err := p.place(snapshot, task, item)
	if err != nil {
		return PlannedAssignment{}, err
	}
	if snapshot.Ledger.HasAssignment(task.ID) {
		return PlannedAssignment{}, domain.DuplicateAssignmentError(task.ID)
	}
	return result, nil
}

// place validates an explicit slot or selects the earliest one.
func (p *Planner) place(snapshot *Snapshot, task domain.Task, item Item) (PlannedAssignment, error) {
	if item.Explicit() {
		resource, ok := snapshot.Resource(item.ResourceID)
		if !ok {
			return PlannedAssignment{}, domain.InputShapeError(task.ID, "resource %d does not exist", item.ResourceID)
		}
		if !task.WithinWindow(item.Start, item.End) {
			return PlannedAssignment{}, domain.ConflictError(task.ID, domain.ReasonOutsideTaskWindow)
		}
		timeline := snapshot.Ledger.Timeline(resource.ID)
		if reason := CheckAssignment(resource, task, item.Start, item.End, timeline, 0); reason != domain.ReasonNone {
			return PlannedAssignment{}, domain.ConflictError(task.ID, reason)
		}
		return PlannedAssignment{TaskID: task.ID, ResourceID: resource.ID, Start: item.Start, End: item.End}, nil
	}

	slot, ok := SelectEarliest(task, snapshot.Resources, snapshot.Ledger, snapshot.Today, item.ResourceID)
	if !ok {
		return PlannedAssignment{}, domain.InfeasibleError(task.ID)
	}
	return PlannedAssignment{TaskID: task.ID, ResourceID: slot.ResourceID, Start: slot.Start, End: slot.End}, nil
}

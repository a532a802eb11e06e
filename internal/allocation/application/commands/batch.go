package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/allot/internal/allocation/application/services"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

// Mode selects between simulating a batch and committing it.
type Mode string

const (
	ModePlan   Mode = "plan"
	ModeAssign Mode = "assign"
)

// BatchState is the lifecycle of one batch.
type BatchState string

const (
	StateReceivingInput BatchState = "receiving_input"
	StateValidating     BatchState = "validating"
	StateExecutingBatch BatchState = "executing_batch"
	StateCommitted      BatchState = "committed"
	StateRolledBack     BatchState = "rolled_back"
)

// BatchCommand asks for a batch of tasks to be planned or assigned. Exactly
// one of ProjectID and Items must be set.
type BatchCommand struct {
	Mode      Mode
	ProjectID int64
	Items     []services.Item
}

// Batch is the outcome of a BatchCommand. A plan ends in StateCommitted
// without writing anything.
type Batch struct {
	ID          uuid.UUID                    `json:"batch_id"`
	Mode        Mode                         `json:"mode"`
	State       BatchState                   `json:"state"`
	Assignments []services.PlannedAssignment `json:"assignments"`
}

// BatchHandler plans or assigns a batch of tasks. An assign batch is
// all-or-nothing.
type BatchHandler struct {
	resources   domain.ResourceRepository
	projects    domain.ProjectRepository
	tasks       domain.TaskRepository
	assignments domain.AssignmentRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	locker      sharedApplication.Locker
	clock       domain.Clock
	planner     *services.Planner
	logger      *slog.Logger
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(
	resources domain.ResourceRepository,
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	assignments domain.AssignmentRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locker sharedApplication.Locker,
	clock domain.Clock,
	logger *slog.Logger,
) *BatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchHandler{
		resources:   resources,
		projects:    projects,
		tasks:       tasks,
		assignments: assignments,
		outboxRepo:  outboxRepo,
		uow:         uow,
		locker:      locker,
		clock:       clock,
		planner:     services.NewPlanner(logger),
		logger:      logger,
	}
}

// Handle runs the batch. On failure the returned batch is in
// StateRolledBack and the error is a *domain.SchedulingError.
func (h *BatchHandler) Handle(ctx context.Context, cmd BatchCommand) (*Batch, error) {
	batch := &Batch{ID: uuid.New(), Mode: cmd.Mode, State: StateReceivingInput}
	logger := observability.LogOperation(h.logger, string(cmd.Mode), "batch_id", batch.ID)

	if err := checkShape(cmd); err != nil {
		return h.rollBack(ctx, logger, batch, err)
	}

	var (
		planned []services.PlannedAssignment
		err     error
	)
	switch cmd.Mode {
	case ModePlan:
		planned, err = h.simulate(ctx, batch, cmd)
	case ModeAssign:
		planned, err = h.commit(ctx, batch, cmd)
	}
	if err != nil {
		return h.rollBack(ctx, logger, batch, err)
	}

	batch.Assignments = planned
	batch.State = StateCommitted
	logger.InfoContext(ctx, "batch finished", "assignments", len(planned))
	return batch, nil
}

// Plan simulates a batch.
func (h *BatchHandler) Plan(ctx context.Context, projectID int64, items []services.Item) (*Batch, error) {
	return h.Handle(ctx, BatchCommand{Mode: ModePlan, ProjectID: projectID, Items: items})
}

// Assign commits a batch.
func (h *BatchHandler) Assign(ctx context.Context, projectID int64, items []services.Item) (*Batch, error) {
	return h.Handle(ctx, BatchCommand{Mode: ModeAssign, ProjectID: projectID, Items: items})
}

func (h *BatchHandler) rollBack(ctx context.Context, logger *slog.Logger, batch *Batch, err error) (*Batch, error) {
	batch.State = StateRolledBack
	batch.Assignments = nil
	logger.WarnContext(ctx, "batch rolled back", "error", err)
	return batch, err
}

func (h *BatchHandler) simulate(ctx context.Context, batch *Batch, cmd BatchCommand) ([]services.PlannedAssignment, error) {
	batch.State = StateValidating
	snapshot, items, err := h.load(ctx, cmd)
	if err != nil {
		return nil, err
	}
	batch.State = StateExecutingBatch
	return h.planner.Run(snapshot, items)
}

func (h *BatchHandler) commit(ctx context.Context, batch *Batch, cmd BatchCommand) ([]services.PlannedAssignment, error) {
	lockIDs, err := h.lockTargets(ctx, cmd)
	if err != nil {
		return nil, domain.PersistenceError(0, err)
	}
	release, err := h.locker.Acquire(ctx, lockKeys(lockIDs)...)
	if err != nil {
		return nil, domain.PersistenceError(0, fmt.Errorf("acquire resource locks: %w", err))
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			h.logger.WarnContext(ctx, "failed to release resource locks", "error", err)
		}
	}()

	planned, err := sharedApplication.InUnitOfWork(ctx, h.uow, func(txCtx context.Context) ([]services.PlannedAssignment, error) {
		batch.State = StateValidating
		if err := h.resources.Lock(txCtx, lockIDs); err != nil {
			return nil, domain.PersistenceError(0, err)
		}
		snapshot, items, err := h.load(txCtx, cmd)
		if err != nil {
			return nil, err
		}

		// Slots are checked again against what storage held when the
		// transaction started, independently of the planner's ledger.
		verify := snapshot.Ledger.Clone()

		batch.State = StateExecutingBatch
		planned, err := h.planner.Run(snapshot, items)
		if err != nil {
			return nil, err
		}

		created := make([]eventSource, 0, len(planned))
		for _, p := range planned {
			a, err := h.insert(txCtx, snapshot, verify, p)
			if err != nil {
				return nil, err
			}
			created = append(created, a)
		}
		if err := saveEvents(txCtx, h.outboxRepo, created...); err != nil {
			return nil, domain.PersistenceError(0, err)
		}
		return planned, nil
	})
	if err != nil {
		if _, ok := domain.AsSchedulingError(err); !ok {
			err = domain.PersistenceError(0, err)
		}
		return nil, err
	}
	return planned, nil
}

func (h *BatchHandler) insert(ctx context.Context, snapshot *services.Snapshot, verify *services.Ledger, p services.PlannedAssignment) (*domain.Assignment, error) {
	resource, _ := snapshot.Resource(p.ResourceID)
	task := snapshot.Tasks[p.TaskID]
	if reason := services.CheckAssignment(resource, task, p.Start, p.End, verify.Timeline(p.ResourceID), 0); reason != domain.ReasonNone {
		return nil, domain.ConflictError(p.TaskID, reason)
	}

	a, err := domain.NewAssignment(p.TaskID, p.ResourceID, p.Start, p.End)
	if err != nil {
		return nil, domain.InputShapeError(p.TaskID, "%v", err)
	}
	if err := h.assignments.Insert(ctx, a); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, domain.DuplicateAssignmentError(p.TaskID)
		}
		return nil, domain.PersistenceError(p.TaskID, err)
	}
	verify.Commit(services.Commitment{
		AssignmentID: a.ID,
		TaskID:       a.TaskID,
		ResourceID:   a.ResourceID,
		Start:        a.Start,
		End:          a.End,
	})
	return a, nil
}

// lockTargets returns the resources an assign batch may touch: the named
// ones when every item names a resource, otherwise all of them.
func (h *BatchHandler) lockTargets(ctx context.Context, cmd BatchCommand) ([]int64, error) {
	if cmd.ProjectID == 0 {
		named := make(map[int64]struct{}, len(cmd.Items))
		all := true
		for _, item := range cmd.Items {
			if item.ResourceID == 0 {
				all = false
				break
			}
			named[item.ResourceID] = struct{}{}
		}
		if all {
			ids := make([]int64, 0, len(named))
			for id := range named {
				ids = append(ids, id)
			}
			return sortIDs(ids), nil
		}
	}

	resources, err := h.resources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	ids := make([]int64, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	return ids, nil
}

func lockKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "resource:" + strconv.FormatInt(id, 10)
	}
	return keys
}

// load reads everything the batch needs and resolves the ordered items.
func (h *BatchHandler) load(ctx context.Context, cmd BatchCommand) (*services.Snapshot, []services.Item, error) {
	today := h.clock.Today()

	tasks, items, err := h.resolveItems(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[int64]domain.Task, len(tasks))
	taskIDs := make([]int64, 0, len(tasks))
	maxEstimation := 0
	for _, t := range tasks {
		byID[t.ID] = t
		taskIDs = append(taskIDs, t.ID)
		maxEstimation = max(maxEstimation, t.Estimation)
	}

	// Assignments ending before this date cannot affect any scan or check.
	from := today.AddDays(-(maxEstimation + 1))
	for _, item := range items {
		if item.Explicit() {
			from = domain.MinDate(from, item.Start)
		}
	}

	resources, err := h.resources.List(ctx)
	if err != nil {
		return nil, nil, domain.PersistenceError(0, err)
	}
	active, err := h.assignments.ListActiveSince(ctx, from)
	if err != nil {
		return nil, nil, domain.PersistenceError(0, err)
	}
	existing, err := h.assignments.FindByTasks(ctx, taskIDs)
	if err != nil {
		return nil, nil, domain.PersistenceError(0, err)
	}

	return &services.Snapshot{
		Today:     today,
		Resources: resources,
		Tasks:     byID,
		Ledger:    services.NewLedger(active, existing),
	}, items, nil
}

func (h *BatchHandler) resolveItems(ctx context.Context, cmd BatchCommand) ([]domain.Task, []services.Item, error) {
	if cmd.ProjectID != 0 {
		project, err := h.projects.FindByID(ctx, cmd.ProjectID)
		if err != nil {
			if isNotFound(err) {
				return nil, nil, domain.InputShapeError(0, "project %d does not exist", cmd.ProjectID)
			}
			return nil, nil, domain.PersistenceError(0, err)
		}
		if !project.Schedulable() {
			return nil, nil, domain.InputShapeError(0, "project %d is completed or deleted", cmd.ProjectID)
		}

		tasks, err := h.tasks.FindUnassignedByProject(ctx, cmd.ProjectID)
		if err != nil {
			return nil, nil, domain.PersistenceError(0, err)
		}
		items := make([]services.Item, len(tasks))
		for i, t := range tasks {
			items[i] = services.Item{TaskID: t.ID}
		}
		return tasks, items, nil
	}

	ids := make([]int64, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		ids = append(ids, item.TaskID)
	}
	tasks, err := h.tasks.FindByIDs(ctx, sortIDs(ids))
	if err != nil {
		return nil, nil, domain.PersistenceError(0, err)
	}

	found := make(map[int64]domain.Task, len(tasks))
	for _, t := range tasks {
		found[t.ID] = t
	}
	for _, item := range cmd.Items {
		t, ok := found[item.TaskID]
		if !ok {
			return nil, nil, domain.InputShapeError(item.TaskID, "task %d does not exist", item.TaskID)
		}
		if !t.Open() {
			return nil, nil, domain.InputShapeError(item.TaskID, "task %d is completed or deleted", item.TaskID)
		}
	}
	return tasks, cmd.Items, nil
}

// checkShape validates the command before anything is read.
func checkShape(cmd BatchCommand) error {
	switch cmd.Mode {
	case ModePlan, ModeAssign:
	default:
		return domain.InputShapeError(0, "unknown batch mode %q", cmd.Mode)
	}

	hasProject := cmd.ProjectID != 0
	hasItems := len(cmd.Items) > 0
	if hasProject == hasItems {
		return domain.InputShapeError(0, "exactly one of project and tasks must be given")
	}

	for _, item := range cmd.Items {
		if item.TaskID <= 0 {
			return domain.InputShapeError(0, "task id must be positive")
		}
		if item.Start.IsZero() != item.End.IsZero() {
			return domain.InputShapeError(item.TaskID, "start and end date must be given together")
		}
		if item.Explicit() && item.ResourceID == 0 {
			return domain.InputShapeError(item.TaskID, "dates require a resource")
		}
		if item.Explicit() && item.End.Before(item.Start) {
			return domain.InputShapeError(item.TaskID, "end date is before start date")
		}
	}
	return nil
}

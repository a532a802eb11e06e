package commands

import (
	"context"

	"github.com/felixgeelhaar/allot/internal/allocation/application/services"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
)

// UpdateAssignmentCommand edits an assignment. Zero fields are left
// unchanged.
type UpdateAssignmentCommand struct {
	AssignmentID int64
	ResourceID   int64
	Start        domain.Date
	End          domain.Date
	Status       domain.Status
}

// UpdateAssignmentHandler handles the UpdateAssignmentCommand.
type UpdateAssignmentHandler struct {
	resources   domain.ResourceRepository
	tasks       domain.TaskRepository
	assignments domain.AssignmentRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	clock       domain.Clock
}

// NewUpdateAssignmentHandler creates a new UpdateAssignmentHandler.
func NewUpdateAssignmentHandler(
	resources domain.ResourceRepository,
	tasks domain.TaskRepository,
	assignments domain.AssignmentRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
) *UpdateAssignmentHandler {
	return &UpdateAssignmentHandler{
		resources:   resources,
		tasks:       tasks,
		assignments: assignments,
		outboxRepo:  outboxRepo,
		uow:         uow,
		clock:       clock,
	}
}

// Handle executes the UpdateAssignmentCommand and returns the stored result.
func (h *UpdateAssignmentHandler) Handle(ctx context.Context, cmd UpdateAssignmentCommand) (*domain.Assignment, error) {
	return sharedApplication.InUnitOfWork(ctx, h.uow, func(txCtx context.Context) (*domain.Assignment, error) {
		return h.apply(txCtx, cmd)
	})
}

func (h *UpdateAssignmentHandler) apply(ctx context.Context, cmd UpdateAssignmentCommand) (*domain.Assignment, error) {
	a, err := h.assignments.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if cmd.Status == domain.StatusAssigned {
		if err := a.Reopen(); err != nil {
			return nil, err
		}
	}

	resourceID := a.ResourceID
	if cmd.ResourceID != 0 {
		resourceID = cmd.ResourceID
	}
	start := a.Start
	if !cmd.Start.IsZero() {
		start = cmd.Start
	}
	end := a.End
	if !cmd.End.IsZero() {
		end = cmd.End
	}
	completing := cmd.Status == domain.StatusCompleted && a.Active()
	if completing && cmd.End.IsZero() {
		end = h.clock.Today()
	}
	if end.Before(start) {
		return nil, domain.InputShapeError(a.TaskID, "start date is after end date")
	}

	changed := resourceID != a.ResourceID || !start.Equal(a.Start) || !end.Equal(a.End)
	if changed {
		if err := h.validate(ctx, a, resourceID, start, end); err != nil {
			return nil, err
		}
	}

	moved := resourceID != a.ResourceID || !start.Equal(a.Start)
	if moved || (changed && !completing) {
		if err := a.Reschedule(resourceID, start, end); err != nil {
			return nil, err
		}
	}
	if completing {
		if err := a.Complete(h.clock.Today(), end); err != nil {
			return nil, err
		}
	}

	if err := h.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	if err := saveEvents(ctx, h.outboxRepo, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (h *UpdateAssignmentHandler) validate(ctx context.Context, a *domain.Assignment, resourceID int64, start, end domain.Date) error {
	resource, err := h.resources.FindByID(ctx, resourceID)
	if err != nil {
		if isNotFound(err) {
			return domain.InputShapeError(a.TaskID, "resource %d does not exist", resourceID)
		}
		return err
	}
	task, err := h.tasks.FindByID(ctx, a.TaskID)
	if err != nil {
		return err
	}
	if !task.WithinWindow(start, end) {
		return domain.ConflictError(task.ID, domain.ReasonOutsideTaskWindow)
	}

	active, err := h.assignments.ListByResource(ctx, resourceID, domain.StatusAssigned)
	if err != nil {
		return err
	}
	timeline := services.NewLedger(active, nil).Timeline(resourceID)
	if reason := services.CheckAssignment(*resource, *task, start, end, timeline, a.ID); reason != domain.ReasonNone {
		return domain.ConflictError(task.ID, reason)
	}
	return nil
}

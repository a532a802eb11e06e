package commands

import (
	"context"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
)

// CompleteTaskCommand marks a task as done.
type CompleteTaskCommand struct {
	TaskID int64
}

// CompleteTaskHandler completes a task together with its assignment.
type CompleteTaskHandler struct {
	tasks       domain.TaskRepository
	assignments domain.AssignmentRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	clock       domain.Clock
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(tasks domain.TaskRepository, assignments domain.AssignmentRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock domain.Clock) *CompleteTaskHandler {
	return &CompleteTaskHandler{
		tasks:       tasks,
		assignments: assignments,
		outboxRepo:  outboxRepo,
		uow:         uow,
		clock:       clock,
	}
}

// Handle executes the CompleteTaskCommand. The assignment keeps its dates.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.tasks.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		if task.Completed {
			return nil
		}
		if err := task.Complete(); err != nil {
			return err
		}
		if err := h.tasks.Update(txCtx, task); err != nil {
			return err
		}

		a, err := h.assignments.FindByTask(txCtx, task.ID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if !a.Active() {
			return nil
		}
		if err := a.Complete(h.clock.Today(), a.End); err != nil {
			return err
		}
		if err := h.assignments.Update(txCtx, a); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, a)
	})
}

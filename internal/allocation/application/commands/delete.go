package commands

import (
	"context"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
)

// Reasons recorded on removal events.
const (
	RemovedByRequest   = "deleted"
	RemovedWithTask    = "task_deleted"
	RemovedWithProject = "project_deleted"
)

// DeleteHandler soft-deletes tasks and projects and removes assignments.
// Assignments never outlive their task.
type DeleteHandler struct {
	projects    domain.ProjectRepository
	tasks       domain.TaskRepository
	assignments domain.AssignmentRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
}

// NewDeleteHandler creates a new DeleteHandler.
func NewDeleteHandler(projects domain.ProjectRepository, tasks domain.TaskRepository, assignments domain.AssignmentRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeleteHandler {
	return &DeleteHandler{
		projects:    projects,
		tasks:       tasks,
		assignments: assignments,
		outboxRepo:  outboxRepo,
		uow:         uow,
	}
}

// DeleteAssignment removes one assignment. The task becomes unassigned.
func (h *DeleteHandler) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		a, err := h.assignments.FindByID(txCtx, assignmentID)
		if err != nil {
			return err
		}
		return h.remove(txCtx, a, RemovedByRequest)
	})
}

// DeleteTask soft-deletes a task and removes its assignment.
func (h *DeleteHandler) DeleteTask(ctx context.Context, taskID int64) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.tasks.FindByID(txCtx, taskID)
		if err != nil {
			return err
		}
		if task.Deleted {
			return nil
		}
		return h.deleteTask(txCtx, task, RemovedWithTask)
	})
}

// DeleteProject soft-deletes a project and every task in it.
func (h *DeleteHandler) DeleteProject(ctx context.Context, projectID int64) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projects.FindByID(txCtx, projectID)
		if err != nil {
			return err
		}
		if project.Deleted {
			return nil
		}

		tasks, err := h.tasks.ListByProject(txCtx, project.ID)
		if err != nil {
			return err
		}
		for i := range tasks {
			if err := h.deleteTask(txCtx, &tasks[i], RemovedWithProject); err != nil {
				return err
			}
		}

		project.Deleted = true
		return h.projects.Update(txCtx, project)
	})
}

func (h *DeleteHandler) deleteTask(ctx context.Context, task *domain.Task, reason string) error {
	task.Deleted = true
	if err := h.tasks.Update(ctx, task); err != nil {
		return err
	}

	a, err := h.assignments.FindByTask(ctx, task.ID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.remove(ctx, a, reason)
}

func (h *DeleteHandler) remove(ctx context.Context, a *domain.Assignment, reason string) error {
	if err := h.assignments.Delete(ctx, a.ID); err != nil {
		return err
	}
	a.Remove(reason)
	return saveEvents(ctx, h.outboxRepo, a)
}

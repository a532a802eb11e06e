package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

type assignmentUpdateInput struct {
	AssignmentID int64  `json:"assignment_id" jsonschema:"required"`
	ResourceID   int64  `json:"resource_id,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Status       string `json:"status,omitempty"`
}

type assignmentIDInput struct {
	AssignmentID int64 `json:"assignment_id" jsonschema:"required"`
}

type taskIDInput struct {
	TaskID int64 `json:"task_id" jsonschema:"required"`
}

type projectIDInput struct {
	ProjectID int64 `json:"project_id" jsonschema:"required"`
}

type resourceScheduleInput struct {
	ResourceID int64 `json:"resource_id" jsonschema:"required"`
	All        bool  `json:"all,omitempty"`
}

var errNoDatabase = errors.New("this tool requires database connection")

func registerAssignmentTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("assignment.update").
		Description("Move an assignment to other dates or another resource, or complete it").
		Handler(func(ctx context.Context, input assignmentUpdateInput) (*queries.AssignmentDTO, error) {
			if app.UpdateAssignmentHandler == nil {
				return nil, errNoDatabase
			}
			cmd := commands.UpdateAssignmentCommand{
				AssignmentID: input.AssignmentID,
				ResourceID:   input.ResourceID,
			}
			var err error
			if cmd.Start, err = parseDate(input.StartDate); err != nil {
				return nil, err
			}
			if cmd.End, err = parseDate(input.EndDate); err != nil {
				return nil, err
			}
			if input.Status != "" {
				if cmd.Status, err = domain.ParseStatus(input.Status); err != nil {
					return nil, err
				}
			}

			a, err := app.UpdateAssignmentHandler.Handle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			dto := queries.ToAssignmentDTO(a)
			return &dto, nil
		})

	srv.Tool("assignment.delete").
		Description("Delete an assignment; its task becomes unassigned").
		Handler(func(ctx context.Context, input assignmentIDInput) (map[string]any, error) {
			if app.DeleteHandler == nil {
				return nil, errNoDatabase
			}
			if err := app.DeleteHandler.DeleteAssignment(ctx, input.AssignmentID); err != nil {
				return nil, err
			}
			return map[string]any{"assignment_id": input.AssignmentID, "deleted": true}, nil
		})

	srv.Tool("task.assignment").
		Description("Show the assignment of a task").
		Handler(func(ctx context.Context, input taskIDInput) (*queries.AssignmentDTO, error) {
			if app.TaskAssignmentHandler == nil {
				return nil, errNoDatabase
			}
			return app.TaskAssignmentHandler.Handle(ctx, input.TaskID)
		})

	srv.Tool("task.complete").
		Description("Mark a task complete together with its assignment").
		Handler(func(ctx context.Context, input taskIDInput) (map[string]any, error) {
			if app.CompleteTaskHandler == nil {
				return nil, errNoDatabase
			}
			if err := app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{TaskID: input.TaskID}); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": input.TaskID, "completed": true}, nil
		})

	srv.Tool("task.delete").
		Description("Delete a task and its assignment").
		Handler(func(ctx context.Context, input taskIDInput) (map[string]any, error) {
			if app.DeleteHandler == nil {
				return nil, errNoDatabase
			}
			if err := app.DeleteHandler.DeleteTask(ctx, input.TaskID); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": input.TaskID, "deleted": true}, nil
		})

	srv.Tool("project.delete").
		Description("Delete a project with its tasks and assignments").
		Handler(func(ctx context.Context, input projectIDInput) (map[string]any, error) {
			if app.DeleteHandler == nil {
				return nil, errNoDatabase
			}
			if err := app.DeleteHandler.DeleteProject(ctx, input.ProjectID); err != nil {
				return nil, err
			}
			return map[string]any{"project_id": input.ProjectID, "deleted": true}, nil
		})

	srv.Tool("resource.schedule").
		Description("List the assignments of a resource by start date").
		Handler(func(ctx context.Context, input resourceScheduleInput) ([]queries.AssignmentDTO, error) {
			if app.ResourceScheduleHandler == nil {
				return nil, errNoDatabase
			}
			query := queries.ResourceScheduleQuery{ResourceID: input.ResourceID, Status: domain.StatusAssigned}
			if input.All {
				query.Status = ""
			}
			return app.ResourceScheduleHandler.Handle(ctx, query)
		})

	srv.Tool("allot.health").
		Description("Report the health of the database and the optional lock store").
		Handler(func(ctx context.Context, input struct{}) (observability.OverallHealth, error) {
			if deps.Health == nil {
				return observability.OverallHealth{Status: observability.HealthStatusHealthy}, nil
			}
			return deps.Health.Check(ctx), nil
		})
}

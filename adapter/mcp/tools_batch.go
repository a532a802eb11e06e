package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/services"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

type batchInput struct {
	ProjectID int64           `json:"project_id,omitempty"`
	Tasks     []taskItemInput `json:"tasks,omitempty"`
}

type taskItemInput struct {
	TaskID     int64  `json:"task_id" jsonschema:"required"`
	ResourceID int64  `json:"resource_id,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

func (in batchInput) command(mode commands.Mode) (commands.BatchCommand, error) {
	cmd := commands.BatchCommand{Mode: mode, ProjectID: in.ProjectID}
	for _, t := range in.Tasks {
		start, err := parseDate(t.StartDate)
		if err != nil {
			return commands.BatchCommand{}, err
		}
		end, err := parseDate(t.EndDate)
		if err != nil {
			return commands.BatchCommand{}, err
		}
		cmd.Items = append(cmd.Items, services.Item{
			TaskID:     t.TaskID,
			ResourceID: t.ResourceID,
			Start:      start,
			End:        end,
		})
	}
	return cmd, nil
}

func registerBatchTools(srv *mcp.Server, deps ToolDependencies) {
	srv.Tool("plan.preview").
		Description("Preview the assignments for a project or a list of tasks without saving them").
		Handler(batchTool(deps, commands.ModePlan))

	srv.Tool("plan.assign").
		Description("Assign a project or a list of tasks to resources; all tasks are assigned or none").
		Handler(batchTool(deps, commands.ModeAssign))
}

func batchTool(deps ToolDependencies, mode commands.Mode) func(context.Context, batchInput) (*commands.Batch, error) {
	return func(ctx context.Context, input batchInput) (*commands.Batch, error) {
		app := deps.App
		if app == nil || app.BatchHandler == nil {
			return nil, errors.New("planning requires database connection")
		}
		cmd, err := input.command(mode)
		if err != nil {
			return nil, err
		}
		return app.BatchHandler.Handle(ctx, cmd)
	}
}

func parseDate(value string) (domain.Date, error) {
	if value == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(value)
}

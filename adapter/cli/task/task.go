// Package task holds the task commands.
package task

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Complete, delete or inspect tasks",
}

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as complete",
	Long: `Mark a task as complete. Its assignment, if any, is completed too.

Examples:
  allot task complete 4`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		if err := app.CompleteTaskHandler.Handle(cmd.Context(), commands.CompleteTaskCommand{TaskID: taskID}); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task completed: %d\n", taskID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Short:   "Delete a task and its assignment",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		if err := app.DeleteHandler.DeleteTask(cmd.Context(), taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %d\n", taskID)
		return nil
	},
}

var assignmentCmd = &cobra.Command{
	Use:   "assignment [task-id]",
	Short: "Show the assignment of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		dto, err := app.TaskAssignmentHandler.Handle(cmd.Context(), taskID)
		if err != nil {
			return err
		}
		return cli.PrintJSON(cmd, dto)
	},
}

func init() {
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(assignmentCmd)
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task ID: %w", err)
	}
	return id, nil
}

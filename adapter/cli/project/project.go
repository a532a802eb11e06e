// Package project holds the project commands.
package project

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/cli"
)

// Cmd is the project command group
var Cmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var deleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project with its tasks and assignments",
	Long: `Delete a project. Its tasks are deleted and their assignments removed.

Examples:
  allot project delete 1`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project ID: %w", err)
		}

		if err := app.DeleteHandler.DeleteProject(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Project deleted: %d\n", id)
		return nil
	},
}

func init() {
	Cmd.AddCommand(deleteCmd)
}

package assignment

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/cli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [assignment-id]",
	Short:   "Delete an assignment",
	Long:    `Delete an assignment. Its task becomes unassigned again.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid assignment ID: %w", err)
		}
		if err := app.DeleteHandler.DeleteAssignment(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Assignment deleted: %d\n", id)
		return nil
	},
}

package assignment

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

var (
	updateResource int64
	updateStart    string
	updateEnd      string
	updateStatus   string
)

var updateCmd = &cobra.Command{
	Use:   "update [assignment-id]",
	Short: "Move or complete an assignment",
	Long: `Change the resource, dates or status of an assignment. The new slot
is validated like an explicit assignment. Completing without --end ends
the assignment today.

Examples:
  allot assignment update 3 --start 2023-07-19 --end 2023-07-22
  allot assignment update 3 --resource 2
  allot assignment update 3 --status COMPLETED`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid assignment ID: %w", err)
		}

		update := commands.UpdateAssignmentCommand{
			AssignmentID: id,
			ResourceID:   updateResource,
		}
		if updateStart != "" {
			if update.Start, err = domain.ParseDate(updateStart); err != nil {
				return err
			}
		}
		if updateEnd != "" {
			if update.End, err = domain.ParseDate(updateEnd); err != nil {
				return err
			}
		}
		if updateStatus != "" {
			if update.Status, err = domain.ParseStatus(updateStatus); err != nil {
				return err
			}
		}

		a, err := app.UpdateAssignmentHandler.Handle(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return cli.PrintJSON(cmd, queries.ToAssignmentDTO(a))
	},
}

func init() {
	updateCmd.Flags().Int64VarP(&updateResource, "resource", "r", 0, "new resource ID")
	updateCmd.Flags().StringVar(&updateStart, "start", "", "new start date (YYYY-MM-DD)")
	updateCmd.Flags().StringVar(&updateEnd, "end", "", "new end date (YYYY-MM-DD)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "ASSIGNED or COMPLETED")
}

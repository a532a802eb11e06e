// Package resource holds the resource commands.
package resource

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

var scheduleAll bool

// Cmd is the resource command group
var Cmd = &cobra.Command{
	Use:   "resource",
	Short: "Inspect resources",
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [resource-id]",
	Short: "List the assignments of a resource",
	Long: `List the active assignments of a resource by start date.
Use --all to include completed ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid resource ID: %w", err)
		}

		query := queries.ResourceScheduleQuery{ResourceID: id, Status: domain.StatusAssigned}
		if scheduleAll {
			query.Status = ""
		}
		schedule, err := app.ResourceScheduleHandler.Handle(cmd.Context(), query)
		if err != nil {
			return err
		}
		return cli.PrintJSON(cmd, schedule)
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleAll, "all", false, "include completed assignments")
	Cmd.AddCommand(scheduleCmd)
}

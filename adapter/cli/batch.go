package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/services"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

var (
	batchProject int64
	batchTasks   []string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview assignments without saving them",
	Long: `Compute the assignments a batch would make. Nothing is written.

Examples:
  allot plan --project 1
  allot plan --task 4 --task 5:2
  allot plan --task 4:1:2023-07-22:2023-07-25`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, commands.ModePlan)
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign tasks to resources",
	Long: `Compute and save the assignments of a batch. Either every task is
assigned or nothing is.

Examples:
  allot assign --project 1
  allot assign --task 4 --task 5:2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, commands.ModeAssign)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{planCmd, assignCmd} {
		cmd.Flags().Int64VarP(&batchProject, "project", "p", 0, "schedule every unassigned task of the project")
		cmd.Flags().StringArrayVarP(&batchTasks, "task", "t", nil, "task as id[:resource[:start:end]], repeatable")
		cmd.MarkFlagsMutuallyExclusive("project", "task")
		rootCmd.AddCommand(cmd)
	}
}

func runBatch(cmd *cobra.Command, mode commands.Mode) error {
	app, err := RequireApp()
	if err != nil {
		return err
	}

	items := make([]services.Item, 0, len(batchTasks))
	for _, raw := range batchTasks {
		item, err := ParseItem(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	batch, err := app.BatchHandler.Handle(cmd.Context(), commands.BatchCommand{
		Mode:      mode,
		ProjectID: batchProject,
		Items:     items,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", mode, err)
	}
	return PrintJSON(cmd, batch)
}

// ParseItem reads a task item in the form id[:resource[:start:end]].
// An empty resource field means any resource.
func ParseItem(raw string) (services.Item, error) {
	parts := strings.Split(raw, ":")
	if len(parts) == 3 || len(parts) > 4 {
		return services.Item{}, fmt.Errorf("invalid task %q, use id[:resource[:start:end]]", raw)
	}

	var item services.Item
	taskID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return services.Item{}, fmt.Errorf("invalid task id in %q: %w", raw, err)
	}
	item.TaskID = taskID

	if len(parts) >= 2 && parts[1] != "" {
		resourceID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return services.Item{}, fmt.Errorf("invalid resource id in %q: %w", raw, err)
		}
		item.ResourceID = resourceID
	}

	if len(parts) == 4 {
		if item.Start, err = parseOptionalDate(parts[2]); err != nil {
			return services.Item{}, err
		}
		if item.End, err = parseOptionalDate(parts[3]); err != nil {
			return services.Item{}, err
		}
	}
	return item, nil
}

func parseOptionalDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(s)
}

// Package assignment holds the commands that edit existing assignments.
package assignment

import (
	"github.com/spf13/cobra"
)

// Cmd is the assignment command group
var Cmd = &cobra.Command{
	Use:   "assignment",
	Short: "Manage assignments",
	Long:  `Move, complete or delete assignments made by "allot assign".`,
}

func init() {
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/security"
)

var (
	seedFile     string
	seedScenario string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load skills, resources, projects and tasks from YAML",
	Long: `Load a YAML fixture into the database in one transaction.

Examples:
  allot seed --scenario sample
  allot seed --file team.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		var f *fixtures.File
		switch {
		case seedFile != "" && seedScenario != "":
			return errors.New("use either --file or --scenario")
		case seedFile != "":
			r, err := security.OpenFile(seedFile, ".yaml", ".yml")
			if err != nil {
				return err
			}
			defer r.Close()
			if f, err = fixtures.Parse(r); err != nil {
				return fmt.Errorf("failed to parse %s: %w", seedFile, err)
			}
		case seedScenario != "":
			if f, err = fixtures.Scenario(seedScenario); err != nil {
				return err
			}
		default:
			return errors.New("--file or --scenario is required")
		}

		res, err := app.FixtureLoader.Load(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("failed to load fixture: %w", err)
		}
		return PrintJSON(cmd, res)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		applied, err := migrations.Run(cmd.Context(), app.Container.DB)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file")
	seedCmd.Flags().StringVarP(&seedScenario, "scenario", "s", "", "built-in scenario name")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}

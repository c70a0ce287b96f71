package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/index"
)

// NewInitCommand creates and returns the init subcommand
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a trace repository in the root directory",
		Long: `Create the staging and data directories and an empty, validated
database.csv. Fails when a database already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(cmd)
			if err != nil {
				return err
			}

			if _, err := index.ReadCSV(env.databasePath); err == nil {
				return fmt.Errorf("database already exists at %s", env.databasePath)
			}

			db, err := index.Scaffold(env.root)
			if err != nil {
				return err
			}
			if err := index.WriteCSV(env.databasePath, db); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized trace repository at %s\n", env.root)
			return nil
		},
	}
}

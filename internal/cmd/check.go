package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates and returns the check subcommand
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Reconcile the index against the data directory",
		Long: `Verify that every index row has its trace and area files at their
canonical paths, and that no file or directory under the data root is left
unaccounted for. Reports the complete list of missing and orphan paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(cmd)
			if err != nil {
				return err
			}
			org, err := env.loadOrganizer()
			if err != nil {
				return err
			}
			if err := org.Check(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index and data directory are congruent (%d rows).\n",
				org.Database().Len())
			return nil
		},
	}
}

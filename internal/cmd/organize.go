package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOrganizeCommand creates and returns the organize subcommand
func NewOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move staged files into the canonical layout",
		Long: `Classify every file in the staging directory as a trace or area
dataset, look up its thematic group and scale in the index, and move it to
its canonical path. After a real run the repository is re-checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			simulate, err := cmd.Flags().GetBool("simulate")
			if err != nil {
				return err
			}
			report, err := cmd.Flags().GetBool("report")
			if err != nil {
				return err
			}

			env, err := newCommandEnv(cmd)
			if err != nil {
				return err
			}
			org, err := env.loadOrganizer()
			if err != nil {
				return err
			}

			descriptions, err := org.Organize(simulate)
			if report {
				for _, description := range descriptions {
					fmt.Fprintln(cmd.OutOrStdout(), description)
				}
			}
			if err != nil {
				return err
			}

			if !simulate {
				return org.Check()
			}
			return nil
		},
	}

	cmd.Flags().Bool("simulate", false, "describe moves without touching any file")
	cmd.Flags().Bool("report", true, "print a description of every move")

	return cmd
}

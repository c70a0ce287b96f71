package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/report"
)

// NewReportCommand creates and returns the report subcommand
func NewReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-report.md>",
		Short: "Render a validation run report to HTML",
		Long: `Convert a markdown report written by "validate --report" into an HTML
file next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			htmlPath, err := report.RenderHTML(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s\n", htmlPath)
			return nil
		},
	}
}

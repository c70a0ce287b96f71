package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for tracerepo
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracerepo",
		Short: "Fracture trace repository manager",
		Long: `tracerepo manages a file-based repository of geological fracture and
lineament trace datasets paired with their survey-area boundaries.

A tabular index (database.csv) tracks each trace/area pair's location,
validation state and metadata. Subcommands organize staged files into the
canonical directory layout, reconcile the index against the filesystem,
validate trace geometry in parallel and export datasets to other formats.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("root", ".", "repository root directory")
	cmd.PersistentFlags().String("database", "", "path to database.csv, relative to the root (default from config)")
	cmd.PersistentFlags().String("log-level", "", "log verbosity: debug, info, warn, error (default from config)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewOrganizeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewFormatCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}

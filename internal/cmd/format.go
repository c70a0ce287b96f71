package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/organize"
)

// NewFormatCommand creates and returns the format subcommand
func NewFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Re-encode every tracked GeoJSON file",
		Long: `Read and rewrite every dataset referenced by the index so all files
share one canonical GeoJSON encoding. Each physical file is rewritten once
even when shared by several areas.`,
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

			pairs := org.Query(organize.Criteria{})

			formatted := make(map[string]struct{}, 2*len(pairs))
			for _, pair := range pairs {
				for _, path := range []string{pair.TracesPath, pair.AreaPath} {
					if _, done := formatted[path]; done {
						continue
					}
					fc, err := geoio.Read(path)
					if err != nil {
						return err
					}
					if err := geoio.Write(fc, path, geoio.DriverGeoJSON); err != nil {
						return err
					}
					formatted[path] = struct{}{}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Formatted %d file(s).\n", len(formatted))
			return nil
		},
	}
}

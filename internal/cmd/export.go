package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/export"
	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/organize"
)

// NewExportCommand creates and returns the export subcommand
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [destination]",
		Short: "Export datasets into another geospatial format",
		Long: `Convert the datasets selected by the filters into the given driver's
format under <destination>/exported_<driver>, preserving the canonical
relative layout. Files already present at their destination are skipped;
per-file conversion failures are logged and do not abort the batch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			destination := "."
			if len(args) == 1 {
				destination = args[0]
			}
			overwrite, err := cmd.Flags().GetBool("overwrite")
			if err != nil {
				return err
			}
			driverName, err := cmd.Flags().GetString("driver")
			if err != nil {
				return err
			}

			env, err := newCommandEnv(cmd)
			if err != nil {
				return err
			}
			if driverName == "" {
				driverName = env.cfg.Driver
			}
			driver := geoio.Driver(driverName)
			if _, err := driver.Extension(); err != nil {
				return err
			}

			org, err := env.loadOrganizer()
			if err != nil {
				return err
			}
			criteria, err := criteriaFromFlags(cmd)
			if err != nil {
				return err
			}
			pairs := org.Query(criteria)

			destRoot := filepath.Join(destination, export.ExportDirName(driver))
			if err := export.PrepareDestination(destRoot, overwrite, env.log); err != nil {
				return err
			}

			layout := organize.DefaultLayout(env.root)
			reports, err := export.Run(pairs, layout.DataRoot(), destRoot, driver, env.log)
			if err != nil {
				return err
			}

			converted, skipped, failed := 0, 0, 0
			for _, r := range reports {
				switch {
				case r.Err != nil:
					failed++
				case r.Skipped:
					skipped++
				default:
					converted++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Saved datasets to %s with driver %s (%d converted, %d skipped, %d failed).\n",
				destRoot, driver, converted, skipped, failed)
			return nil
		},
	}

	filterFlags(cmd)
	cmd.Flags().String("driver", "", "output driver: GeoJSON or GPKG (default from config)")
	cmd.Flags().Bool("overwrite", true, "remove an existing export directory first")

	return cmd
}

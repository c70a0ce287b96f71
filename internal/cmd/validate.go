package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/report"
	"github.com/lineament/tracerepo/internal/schema"
	"github.com/lineament/tracerepo/internal/validation"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate trace datasets marked invalid",
		Long: `Query the index for pairs whose validity is "invalid" (narrowed by
any filters), validate their geometry on a worker pool, and write the
resulting validity states back to database.csv.

A traces file shared by several areas is validated only once. A dataset
whose validation crashes is recorded as "critical" without aborting the
batch. Exit code 1 when any database update fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			withReport, err := cmd.Flags().GetBool("report")
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

			criteria, err := criteriaFromFlags(cmd)
			if err != nil {
				return err
			}
			criteria.Validity = []schema.Validity{schema.ValidityInvalid}

			invalids := org.Query(criteria)

			// A traces file may serve several areas; validate it once.
			worklist := validation.UniqueByTracesPath(invalids)
			env.log.LogInfo(fmt.Sprintf("Validating %d dataset(s) (%d after deduplication)",
				len(invalids), len(worklist)))

			orchestrator := validation.New(geoio.NewGeomValidator(), env.log, env.cfg.Workers)

			run := report.NewRun()
			instructions := orchestrator.ValidateWorklist(cmd.Context(), worklist)
			// Updates and the report follow the query order, whatever order
			// the pool completed in.
			instructions = validation.SortToMatch(instructions, worklist)
			run.Finish(instructions)

			updateFailures := 0
			for _, instruction := range instructions {
				if err := org.Update(instruction.AreaName, instruction.Values); err != nil {
					updateFailures++
					env.log.LogError(fmt.Sprintf("Failed to update database for %s: %v",
						instruction.AreaName, err))
					continue
				}
				if err := env.persist(org); err != nil {
					updateFailures++
					env.log.LogError(fmt.Sprintf("Failed to write database: %v", err))
				}
			}

			if withReport {
				path, err := run.Write(reportDir(env))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote validation report to %s\n", path)
			}

			printSummary(cmd, instructions)

			if updateFailures > 0 {
				return fmt.Errorf("%d database update(s) failed", updateFailures)
			}
			return nil
		},
	}

	filterFlags(cmd)
	cmd.Flags().Bool("report", false, "write a markdown report of the run")

	return cmd
}

func printSummary(cmd *cobra.Command, instructions []validation.UpdateInstruction) {
	counts := map[string]int{}
	for _, instruction := range instructions {
		counts[instruction.Values[schema.ColValidity]]++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Validated %d dataset(s):", len(instructions))
	for _, validity := range schema.Validities() {
		if n := counts[string(validity)]; n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " %s=%d", validity, n)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func reportDir(env *commandEnv) string {
	if filepath.IsAbs(env.cfg.ReportDir) {
		return env.cfg.ReportDir
	}
	return filepath.Join(env.root, env.cfg.ReportDir)
}

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/ripe-tester/internal/logger"
	"github.com/zjy-dev/ripe-tester/internal/oracle"
	"github.com/zjy-dev/ripe-tester/internal/report"
	"github.com/zjy-dev/ripe-tester/internal/state"
)

// NewReportCommand creates the "report" subcommand.
func NewReportCommand(global *globalOptions) *cobra.Command {
	var (
		from   string
		format string
		lines  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the summary of a saved run again.",
		Long: `Render the summary of a run saved with "ripetest run --results".

Examples:
  ripetest report --from data/run.json --format markdown
  ripetest report --from data/run.json --lines`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			_, done, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			reporter, err := report.New(format)
			if err != nil {
				return err
			}
			rec, err := state.LoadRecord(from)
			if err != nil {
				return err
			}
			logger.Debug("Loaded run %s (%d entries)", rec.ID, len(rec.Entries))

			out := cmd.OutOrStdout()
			if lines {
				for _, e := range rec.Entries {
					if e.Verdict != oracle.Impossible {
						fmt.Fprintln(out, report.FormatLine(e))
					}
				}
			}
			return reporter.Render(out, rec.Results)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Run record written by 'run --results'")
	cmd.Flags().StringVarP(&format, "format", "f", "bash", "Summary format: bash, latex or markdown")
	cmd.Flags().BoolVar(&lines, "lines", false, "Also print the per-configuration verdict lines")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

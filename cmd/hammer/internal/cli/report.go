package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"swarmhammer/internal/config"
	"swarmhammer/internal/report"
)

// addReportCommands adds the commands working on saved campaign reports
func (app *App) addReportCommands(rootCmd *cobra.Command) {
	reportCmd := &cobra.Command{
		Use:   "report <campaign-dir|report.json>",
		Short: "Show the report of a finished campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}
			styled := !app.v.GetBool(config.KeyNoColor) && report.ColorEnabled()
			if err := rep.Render(cmd.OutOrStdout(), styled); err != nil {
				return err
			}
			app.setExitCode(rep.ExitStatus())
			return nil
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the failures of two campaigns",
		Long: `Compare the distinct failure lines of two campaign reports. Lines are
prefixed with "-" when fixed, "+" when new and a space when still failing.
Exits with status 1 when the newer campaign found new failures.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			older, err := report.Load(args[0])
			if err != nil {
				return err
			}
			newer, err := report.Load(args[1])
			if err != nil {
				return err
			}

			cmp := report.Compare(older, newer)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, cmp.Unified())
			fmt.Fprintf(out, "%d fixed, %d new, %d still failing\n", len(cmp.Fixed), len(cmp.New), len(cmp.Persisting))
			if cmp.Regressed() {
				app.setExitCode(1)
			}
			return nil
		},
	}

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diffCmd)
}

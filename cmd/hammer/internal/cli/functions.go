package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addFunctionsCommand adds the function discovery command
func (app *App) addFunctionsCommand(rootCmd *cobra.Command) {
	functionsCmd := &cobra.Command{
		Use:   "functions <files...>",
		Short: "List the functions a campaign would swarm over",
		Long: `Print the function universe discovered with slither (or given with
--functions), one name per line, without running the engine.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.prepare(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range c.universe {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	rootCmd.AddCommand(functionsCmd)
}

package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"swarmhammer/internal/config"
	"swarmhammer/internal/discovery"
	"swarmhammer/internal/logger"
	"swarmhammer/internal/report"
	"swarmhammer/internal/swarm"
)

// addRunCommand adds the explicit form of the default campaign command
func (app *App) addRunCommand(rootCmd *cobra.Command) {
	runCmd := &cobra.Command{
		Use:   "run <files...>",
		Short: "Run a swarm testing campaign",
		Long: `Run one unbiased initial worker, then generations of --ncores workers until
--timeout seconds have passed. Results go to the --name directory, which must
not exist yet. The exit status is the number of failed workers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.runCampaign,
	}
	rootCmd.AddCommand(runCmd)
}

// campaign is everything resolved before the first worker starts.
type campaign struct {
	params   *config.RunParameters
	base     config.BaseConfig
	universe []string
}

// prepare resolves parameters, the base config and the function universe.
// Nothing is written to disk.
func (app *App) prepare(ctx context.Context, files []string) (*campaign, error) {
	params, err := config.Load(app.v, files)
	if err != nil {
		return nil, err
	}
	base, err := config.LoadBaseConfig(params.ConfigPath, params)
	if err != nil {
		return nil, err
	}

	var disc discovery.Discoverer = discovery.NewSlither(params.SlitherCmd)
	if len(params.Functions) > 0 {
		disc = discovery.Static{Names: params.Functions}
	}
	universe, err := disc.Discover(ctx, params.Files, base.PropertyPrefix())
	if err != nil {
		return nil, err
	}

	return &campaign{params: params, base: base, universe: universe}, nil
}

func (app *App) runCampaign(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.prepare(ctx, args)
	if err != nil {
		return err
	}
	params := c.params

	launcher := swarm.NewProcessLauncher(params)
	if err := launcher.CheckEngine(); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(params.Seed, ^params.Seed))
	gen, err := swarm.NewGenerator(rng, c.universe, c.base, params)
	if err != nil {
		return fmt.Errorf("invalid swarm configuration: %w", err)
	}

	if err := config.Bootstrap(params, c.base); err != nil {
		return err
	}
	results, _ := filepath.Abs(params.Name)
	logger.Info("Starting campaign", "results", results, "seed", params.Seed,
		"functions", len(gen.Universe()), "ncores", params.NCores)

	res, runErr := swarm.NewScheduler(params, gen, launcher).Run(ctx)

	rep := report.New(params, res)
	if path, err := rep.Save(params.Name); err != nil {
		logger.Error("Could not save report", "error", err)
	} else {
		logger.Debug("Report saved", "path", path)
	}

	styled := !app.v.GetBool(config.KeyNoColor) && report.ColorEnabled()
	if err := rep.Render(cmd.OutOrStdout(), styled); err != nil {
		logger.Warn("Could not render report", "error", err)
	}

	app.setExitCode(rep.ExitStatus())
	return runErr
}

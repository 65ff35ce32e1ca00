// Package cli provides command-line interface setup for hammer.
package cli

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"swarmhammer/internal/config"
	"swarmhammer/internal/logger"
)

// maxExitStatus is the largest status a process can report.
const maxExitStatus = 255

// App represents the hammer CLI application
type App struct {
	v            *viper.Viper
	hammerConfig string
	exitCode     int
}

// NewApp creates a new hammer CLI application
func NewApp() *App {
	v := viper.New()
	config.SetDefaults(v)
	config.ConfigureViper(v)
	return &App{v: v}
}

// ExitCode is the process status the last command asked for: the number of
// failed workers for a campaign, capped at 255.
func (app *App) ExitCode() int {
	return app.exitCode
}

func (app *App) setExitCode(code int) {
	app.exitCode = min(code, maxExitStatus)
}

// CreateRootCommand creates and configures the root command. Without a
// subcommand it runs a campaign.
func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hammer [flags] <files...>",
		Short: "Swarm testing driver for the echidna fuzzer",
		Long: `hammer runs many echidna workers in parallel generations, each with a randomly
restricted set of callable functions and sequence length, and reports every
property failure together with the workers that reproduced it.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.initConfig,
		RunE:              app.runCampaign,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyName, "", "Campaign results directory [default: hammer.<pid>]")
	flags.String(config.KeyContract, "", "Contract to fuzz when the files define several")
	flags.String(config.KeyConfig, "", "Base echidna config every worker inherits")
	flags.String(config.KeyCorpusDir, "", "Shared corpus directory [default: <name>/corpus]")
	flags.String(config.KeyEngine, config.DefaultEngineCmd, "Fuzzing engine executable")
	flags.String(config.KeySlither, config.DefaultSlitherCmd, "slither executable used for function discovery")
	flags.Int(config.KeyNCores, runtime.NumCPU(), "Workers per generation")
	flags.Int(config.KeyTimeout, config.DefaultTimeout, "Total campaign time in seconds")
	flags.Int(config.KeyGenTime, config.DefaultGenTime, "Per-generation engine timeout in seconds")
	flags.Uint64(config.KeySeed, 0, "Random seed [default: random]")
	flags.Int(config.KeyMinSeqLen, config.DefaultMinSeqLen, "Minimum sequence length")
	flags.Int(config.KeyMaxSeqLen, config.DefaultMaxSeqLen, "Maximum sequence length (exclusive)")
	flags.Float64(config.KeyProb, config.DefaultProb, "Probability of including each function")
	flags.StringSlice(config.KeyAlways, nil, "Functions never excluded")
	flags.StringSlice(config.KeyFunctions, nil, "Explicit function universe, skipping slither")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.Bool(config.KeyNoColor, false, "Print the report as plain markdown")
	flags.StringVar(&app.hammerConfig, "hammer-config", "", "hammer settings file [default: ./hammer.yaml]")

	if err := app.v.BindPFlags(flags); err != nil {
		logger.Fatal("Error binding flags", "error", err)
	}

	app.addRunCommand(rootCmd)
	app.addFunctionsCommand(rootCmd)
	app.addReportCommands(rootCmd)
	app.addVersionCommand(rootCmd)

	return rootCmd
}

// initConfig loads .env, hammer.yaml and configures the logger before any
// command runs.
func (app *App) initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv("."); err != nil {
		return err
	}
	if err := config.ReadConfigFile(app.v, app.hammerConfig); err != nil {
		return err
	}
	return logger.Configure(app.v.GetString(config.KeyLogLevel), app.v.GetString(config.KeyLogFile))
}

// Package main provides the hammer CLI, a swarm testing driver for the
// echidna smart contract fuzzer.
package main

import (
	"os"

	"swarmhammer/cmd/hammer/internal/cli"
	"swarmhammer/internal/logger"
)

func main() {
	app := cli.NewApp()
	rootCmd := app.CreateRootCommand()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("hammer failed", "error", err)
		os.Exit(1)
	}
	os.Exit(app.ExitCode())
}

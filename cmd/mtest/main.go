package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mtest/internal/cli"
	"mtest/internal/cli/commands"
	"mtest/internal/config"
)

var version = "dev"

func main() {
	// Create initial config with defaults
	cfg := config.New()

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Create root command. Bare invocations run the bootstrapper.
	rootCmd := &cobra.Command{
		Use:   "mtest",
		Short: "MonetDB client test harness",
		Long: `mtest drives the MonetDB client test suite. A bare invocation exports the
five suite variables with their baked-in values and invokes the test tool
for the built-in module pair, in order, finishing with the last module's
exit status. Subcommands add discovery, parallel runs, stored results and
daemon control.`,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE:          cmds.Bootstrap.Execute,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// A finished suite run exits with the last module's status
	os.Exit(cmds.ExitStatus())
}

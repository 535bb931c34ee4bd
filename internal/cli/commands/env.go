package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"mtest/internal/config"
)

// EnvCommand prints the suite environment contract
type EnvCommand struct {
	config *config.Config
}

// NewEnvCommand creates a new EnvCommand
func NewEnvCommand(cfg *config.Config) *EnvCommand {
	return &EnvCommand{config: cfg}
}

// Execute runs the command
func (ec *EnvCommand) Execute(cmd *cobra.Command, args []string) error {
	for _, kv := range ec.config.Options.Environ() {
		fmt.Fprintln(cmd.OutOrStdout(), kv)
	}
	return nil
}

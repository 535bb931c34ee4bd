package commands

import (
	"github.com/spf13/cobra"

	"mtest/internal/config"
	"mtest/internal/domain"
	"mtest/internal/execution"
	"mtest/internal/ui"
	"mtest/pkg/logging"
)

// BootstrapCommand is the bare invocation: export the baked-in suite
// variables and invoke the built-in module pair in order. It reads
// nothing from the environment or disk, a bare run behaves the same on
// every machine.
type BootstrapCommand struct {
	config    *config.Config
	sequence  *execution.Sequence
	formatter *ui.Formatter
	report    func(int)
}

// NewBootstrapCommand creates a new BootstrapCommand
func NewBootstrapCommand(cfg *config.Config, sequence *execution.Sequence, formatter *ui.Formatter, report func(int)) *BootstrapCommand {
	return &BootstrapCommand{
		config:    cfg,
		sequence:  sequence,
		formatter: formatter,
		report:    report,
	}
}

// Execute runs the command
func (bc *BootstrapCommand) Execute(cmd *cobra.Command, args []string) error {
	options := config.DefaultOptions()
	if err := options.Apply(); err != nil {
		return err
	}
	logging.InitFromDebug(options.DebugEnabled())

	modules := make([]domain.Module, 0, len(config.DefaultModules))
	for _, name := range config.DefaultModules {
		modules = append(modules, domain.Module{
			Name: name,
			Path: bc.config.GetModulePath(name),
		})
	}

	// Every invocation's output passes through unchanged
	bc.sequence.SetStream(cmd.OutOrStdout())

	results, duration, err := bc.sequence.Execute(cmd.Context(), modules)
	if err != nil {
		return err
	}

	bc.formatter.PrintSequenceSummary(results, duration)
	bc.report(execution.LastExitCode(results, modules))
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mtest/internal/config"
	"mtest/internal/control"
	"mtest/internal/discovery"
	"mtest/internal/domain"
	"mtest/internal/execution"
	"mtest/internal/farm"
	"mtest/internal/parser"
	"mtest/internal/storage"
	"mtest/internal/ui"
	"mtest/pkg/logging"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	sequence  *execution.Sequence
	pool      *execution.WorkerPool
	parser    *parser.PytestParser
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
	report    func(int)
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	sequence *execution.Sequence,
	pool *execution.WorkerPool,
	pytestParser *parser.PytestParser,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	report func(int),
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		sequence:  sequence,
		pool:      pool,
		parser:    pytestParser,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
		report:    report,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Export the suite contract before anything spawns
	if err := rc.config.Options.Apply(); err != nil {
		return err
	}

	// Prepare the farm if asked
	if rc.config.Flags.Prepare || rc.config.Flags.Fresh {
		if err := rc.prepareFarm(ctx); err != nil {
			return fmt.Errorf("farm preparation failed: %w", err)
		}
		fmt.Println()
	}

	modules, err := rc.resolveModules()
	if err != nil {
		return err
	}

	if len(modules) == 0 {
		color.Yellow("No modules to execute")
		return nil
	}

	// Create and set progress bar
	progressBar := ui.NewProgressBar(len(modules))

	var results []domain.InvocationResult
	var duration time.Duration
	if rc.config.Processors <= 1 && !rc.config.Flags.FailFast {
		rc.sequence.SetProgress(progressBar)
		results, duration, err = rc.sequence.Execute(ctx, modules)
	} else {
		rc.pool.SetProgress(progressBar)
		results, duration, err = rc.pool.ExecuteWithOptions(ctx, modules, rc.config.Flags.FailFast)
	}
	if err != nil {
		return err
	}

	// Parse failures
	var failures []domain.CaseFailure
	for _, result := range results {
		if !result.Success {
			failures = append(failures, rc.parser.ParseFailures(result)...)
		}
	}

	exitStatus := execution.LastExitCode(results, modules)
	rc.report(exitStatus)

	// Save results
	if err := rc.storage.Save(results, failures, duration, rc.config.Processors, exitStatus); err != nil {
		return fmt.Errorf("failed to save run results: %w", err)
	}

	// Print stats
	if err := rc.formatter.PrintRunStats(); err != nil {
		return err
	}

	// Open the failures viewer if asked
	if rc.config.Flags.OpenFailures && len(failures) > 0 {
		output, err := rc.storage.Load()
		if err != nil {
			return err
		}
		return rc.viewer.View(output)
	}

	return nil
}

// prepareFarm makes sure the configured database is running before the run.
func (rc *RunCommand) prepareFarm(ctx context.Context) error {
	client, err := control.New(ctx, control.Config{
		Hostname:   rc.config.Options.Hostname,
		Port:       rc.config.Port,
		Passphrase: rc.config.Passphrase,
	})
	if err != nil {
		return err
	}

	preparer := farm.NewPreparer(client, rc.config.Options.Database)
	return preparer.Prepare(ctx, rc.config.Flags.Fresh)
}

// resolveModules returns the ordered module list for this run, from the
// manifest when one pins it, otherwise by scanning the suite path.
func (rc *RunCommand) resolveModules() ([]domain.Module, error) {
	manifest, err := discovery.LoadManifest(filepath.Join(rc.config.ProjectPath, discovery.ManifestFileName))
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		rc.applyManifest(manifest)
	}

	if manifest != nil && len(manifest.Modules) > 0 {
		logging.Debug("run", "using %d module(s) pinned by the manifest", len(manifest.Modules))
		modules := make([]domain.Module, 0, len(manifest.Modules))
		for _, spec := range manifest.Modules {
			path := spec.File
			switch {
			case path == "":
				path = rc.config.GetModulePath(spec.Name)
			case !filepath.IsAbs(path):
				path = filepath.Join(rc.config.GetSuitePath(), path)
			}
			modules = append(modules, domain.Module{Name: spec.Name, Path: path})
		}
		return modules, nil
	}

	paths, err := rc.scanner.Scan(rc.config.GetSuitePath())
	if err != nil {
		return nil, err
	}
	paths = rc.filter.FilterByName(paths, rc.config.Flags.NameFilter)

	modules := make([]domain.Module, 0, len(paths))
	for _, path := range paths {
		modules = append(modules, domain.ModuleFromPath(path))
	}
	return modules, nil
}

// applyManifest folds manifest overrides into the config. Flags still win
// over the manifest through the config's lookup order.
func (rc *RunCommand) applyManifest(m *discovery.Manifest) {
	if m.Suite != "" {
		rc.config.SuitePath = m.Suite
	}
	if m.Runner.Program != "" {
		rc.config.RunnerProgram = m.Runner.Program
	}
	if len(m.Runner.Args) > 0 {
		rc.config.RunnerArgs = m.Runner.Args
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"mtest/internal/cli"
	"mtest/internal/config"
	"mtest/internal/discovery"
	"mtest/internal/execution"
	"mtest/internal/parser"
	"mtest/internal/storage"
	"mtest/internal/ui"
	"mtest/pkg/logging"
)

// Commands holds all CLI commands
type Commands struct {
	Bootstrap *BootstrapCommand
	Run       *RunCommand
	List      *ListCommand
	Env       *EnvCommand
	Failures  *FailuresCommand
	DB        *DBCommand

	// Exit status of the last command that invoked suite modules. Main
	// hands it to os.Exit, so a failing suite fails the process without
	// being treated as a command error.
	exitStatus int
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	// Initialize dependencies
	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	filter := discovery.NewFilter()
	caseParser := discovery.NewParser()
	runner := execution.NewRunner(cfg)
	pytestParser := parser.NewPytestParser()
	sequence := execution.NewSequence(runner, pytestParser)
	pool := execution.NewWorkerPool(cfg, runner, pytestParser)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, caseParser)
	errorViewer := ui.NewErrorViewer(cfg, jsonStorage)

	c := &Commands{}
	c.Bootstrap = NewBootstrapCommand(cfg, sequence, formatter, c.setExitStatus)
	c.Run = NewRunCommand(cfg, scanner, filter, sequence, pool, pytestParser, jsonStorage, formatter, errorViewer, c.setExitStatus)
	c.List = NewListCommand(cfg, scanner, filter, formatter, jsonStorage)
	c.Env = NewEnvCommand(cfg)
	c.Failures = NewFailuresCommand(cfg, jsonStorage, errorViewer)
	c.DB = NewDBCommand(cfg)
	return c
}

func (c *Commands) setExitStatus(status int) {
	c.exitStatus = status
}

// ExitStatus returns the exit status the process should finish with.
func (c *Commands) ExitStatus() int {
	return c.exitStatus
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	// Subcommands see the fully layered config: defaults, the project
	// dotenv file, the environment and finally the parsed flags. The bare
	// root command never calls this, it runs on baked-in defaults alone.
	loadConfig := func(cmd *cobra.Command, args []string) error {
		logging.InitFromDebug(false)
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded
		logging.InitFromDebug(loaded.Options.DebugEnabled())
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run suite modules against the configured server",
		Long:    "Discover suite modules and invoke the test tool once per module, sequentially or on parallel workers",
		PreRunE: loadConfig,
		RunE:    c.Run.Execute,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 1, "Number of parallel workers to use")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter modules by name pattern (supports wildcards, e.g. 'test_*' or '*control*')")
	runCmd.Flags().StringVarP(&flags.SuitePath, "test-path", "t", "", "Path to the folder where module discovery starts")
	runCmd.Flags().StringVar(&flags.ProjectPath, "project-path", "", "Project root the suite belongs to")
	runCmd.Flags().BoolVar(&flags.Prepare, "prepare", false, "Ensure the test database exists and runs before the suite")
	runCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Destroy and recreate the test database before the suite (implies --prepare)")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop scheduling new modules after the first failure")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered suite modules",
		Long:    "Scan and list suite modules without invoking them",
		PreRunE: loadConfig,
		RunE:    c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter modules by name pattern (supports wildcards, e.g. 'test_*' or '*control*')")
	listCmd.Flags().StringVarP(&flags.SuitePath, "test-path", "t", "", "Path to the folder where module discovery starts")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List test cases inside every module")
	listCmd.Flags().BoolVar(&flags.Bootstrap, "bootstrap", false, "List the fixed module pair a bare run invokes")
	rootCmd.AddCommand(listCmd)

	// Env command
	envCmd := &cobra.Command{
		Use:     "env",
		Short:   "Print the suite environment contract",
		Long:    "Print the five suite variables a run would export, in export order",
		PreRunE: loadConfig,
		RunE:    c.Env.Execute,
	}
	rootCmd.AddCommand(envCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View test case failures interactively",
		Long:    "Display test case failures from the last run in an interactive viewer",
		PreRunE: loadConfig,
		RunE:    c.Failures.Execute,
	}
	rootCmd.AddCommand(failuresCmd)

	// DB command group
	rootCmd.AddCommand(c.DB.Command(loadConfig))
}

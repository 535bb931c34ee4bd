package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"mtest/pkg/logging"
)

// Config holds all configuration for the application
type Config struct {
	// Variables exported to the suite
	Options Options

	// Daemon control channel settings, read but never exported
	Port       int
	Passphrase string

	// Project settings
	ProjectPath string
	SuitePath   string

	// Runner settings
	RunnerProgram string
	RunnerArgs    []string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Processors int

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Processors   int
	NameFilter   string
	SuitePath    string
	ProjectPath  string
	Prepare      bool
	Fresh        bool
	FailFast     bool
	OpenFailures bool
	TestCases    bool
	Bootstrap    bool
}

// controlEnv carries the control channel variables. They are read from the
// environment when present but never exported back.
type controlEnv struct {
	Port       int    `envconfig:"TSTPORT" default:"50000"`
	Passphrase string `envconfig:"TSTPASSPHRASE"`
}

// New creates a new Config with defaults. A bare run uses exactly this,
// nothing from the environment or disk leaks into it.
func New() *Config {
	cfg := &Config{
		Options:        DefaultOptions(),
		Port:           DefaultPort,
		ProjectPath:    DefaultProjectPath,
		SuitePath:      DefaultSuitePath,
		RunnerProgram:  DefaultRunnerProgram,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Flags:          Flags{Processors: DefaultProcessors},
	}
	cfg.RunnerArgs = make([]string, len(DefaultRunnerArgs))
	copy(cfg.RunnerArgs, DefaultRunnerArgs)
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config layered from defaults, the project dotenv file,
// the process environment and finally the given flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags

	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}

	// Fill the environment from the dotenv file first. Variables already
	// present in the environment win over the file.
	envFile := filepath.Join(cfg.ProjectPath, DefaultEnvFile)
	if err := godotenv.Load(envFile); err == nil {
		logging.Debug("config", "loaded environment from %s", envFile)
	}

	if err := envconfig.Process("", &cfg.Options); err != nil {
		return nil, fmt.Errorf("reading suite variables: %w", err)
	}

	var ctl controlEnv
	if err := envconfig.Process("", &ctl); err != nil {
		return nil, fmt.Errorf("reading control variables: %w", err)
	}
	cfg.Port = ctl.Port
	cfg.Passphrase = ctl.Passphrase

	// Apply flag overrides
	if flags.Processors > 0 {
		cfg.Processors = flags.Processors
	}

	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite variables: %w", err)
	}

	return cfg, nil
}

// GetSuitePath returns the suite path, using the flag if provided
func (c *Config) GetSuitePath() string {
	if c.Flags.SuitePath != "" {
		if filepath.IsAbs(c.Flags.SuitePath) {
			return c.Flags.SuitePath
		}
		return filepath.Join(c.ProjectPath, c.Flags.SuitePath)
	}

	return filepath.Join(c.ProjectPath, c.SuitePath)
}

// GetModulePath returns the file path a named suite module resolves to
func (c *Config) GetModulePath(name string) string {
	return filepath.Join(c.GetSuitePath(), name+".py")
}

// GetOutputPath returns the full path to the output JSON file (under project so run and failures use the same file).
// Resolves to an absolute path so run and failures always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetControlAddress returns the host:port the daemon control channel listens on
func (c *Config) GetControlAddress() string {
	return net.JoinHostPort(c.Options.Hostname, strconv.Itoa(c.Port))
}

package commands

import (
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mtest/internal/config"
	"mtest/internal/discovery"
	"mtest/internal/domain"
	"mtest/internal/storage"
	"mtest/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	if lc.config.Flags.Bootstrap {
		modules := make([]domain.Module, 0, len(config.DefaultModules))
		for _, name := range config.DefaultModules {
			modules = append(modules, domain.Module{
				Name: name,
				Path: lc.config.GetModulePath(name),
			})
		}
		return lc.formatter.PrintBootstrapModules(modules)
	}

	paths, err := lc.scanner.Scan(lc.config.GetSuitePath())
	if err != nil {
		return err
	}

	// Filter modules
	paths = lc.filter.FilterByName(paths, lc.config.Flags.NameFilter)

	if len(paths) == 0 {
		color.Yellow("No modules found")
		return nil
	}

	return lc.formatter.PrintModuleList(paths, lc.config.Flags.TestCases, lc.failedPaths())
}

// failedPaths returns the normalized module keys that still fail from the
// last run. Missing or unreadable results mean nothing gets marked.
func (lc *ListCommand) failedPaths() map[string]struct{} {
	output, err := lc.storage.Load()
	if err != nil {
		return nil
	}

	failed := make(map[string]struct{}, len(output.Details))
	for _, failure := range output.Details {
		if failure.Resolved {
			continue
		}
		failed[normalizedPathKey(lc.config.ProjectPath, failure.ModulePath)] = struct{}{}
	}
	return failed
}

// normalizedPathKey returns a path key for matching (same logic as the ui
// formatter).
func normalizedPathKey(projectPath, path string) string {
	p := path
	if projectPath != "" {
		if rel, err := filepath.Rel(projectPath, path); err == nil && rel != ".." && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	p = filepath.ToSlash(p)
	p = strings.TrimSuffix(p, ".py")
	return strings.ToLower(p)
}

package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"mtest/internal/config"
	"mtest/internal/discovery"
	"mtest/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{
		config: cfg,
		parser: parser,
	}
}

// PrintSequenceSummary prints one line per invocation plus the overall
// duration, without clearing the terminal. The bootstrap path keeps its
// stdout to the child tools' output plus these lines.
func (f *Formatter) PrintSequenceSummary(results []domain.InvocationResult, duration time.Duration) {
	fmt.Println()
	for _, r := range results {
		switch {
		case r.Success:
			color.Green("✓ %s (exit 0)", r.Module)
		case r.Error != nil:
			color.Red("✗ %s (exit %d: %v)", r.Module, r.ExitCode, r.Error)
		default:
			color.Red("✗ %s (exit %d)", r.Module, r.ExitCode)
		}
	}
	color.White("Modules: %d | Duration: %s", len(results), duration.Round(time.Millisecond))
}

// PrintRunStats reads and displays run statistics from the JSON results file
func (f *Formatter) PrintRunStats() error {
	// Clear terminal screen
	fmt.Print("\033[2J\033[H")

	outputPath := f.config.GetOutputPath()

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	var output domain.RunOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	meta := output.Meta

	// Print header
	fmt.Print("\n")
	color.Cyan("╔═══════════════════════════════════════════════════════════════╗")
	color.Cyan("║                      Suite Run Statistics                     ║")
	color.Cyan("╚═══════════════════════════════════════════════════════════════╝\n")

	// Print table
	fmt.Println("┌─────────────────────────────────┬─────────────────────────────┐")

	fmt.Printf("│ %-31s │ ", "Total Modules")
	color.White("%-27d │\n", meta.TotalModules)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Passed Modules")
	color.Green("%-27d │\n", meta.PassedModules)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Failed Modules")
	color.Red("%-27d │\n", meta.FailedModules)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Failed Test Cases")
	color.Red("%-27d │\n", meta.FailedTestCases)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Exit Status")
	if meta.ExitStatus == 0 {
		color.Green("%-27d │\n", meta.ExitStatus)
	} else {
		color.Red("%-27d │\n", meta.ExitStatus)
	}
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Duration")
	durationStr := fmt.Sprintf("%.2fs", meta.DurationSeconds)
	color.White("%-27s │\n", durationStr)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Workers")
	color.White("%-27d │\n", meta.Workers)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")

	fmt.Printf("│ %-31s │ ", "Timestamp")
	color.White("%-27s │\n", meta.Timestamp)

	fmt.Println("└─────────────────────────────────┴─────────────────────────────┘")

	// Print summary line
	fmt.Println()
	if meta.FailedModules == 0 {
		color.Green("✓ All modules passed!")
	} else {
		color.Red("✗ %d module(s) failed with %d test case failure(s)", meta.FailedModules, meta.FailedTestCases)
		fmt.Println()
		f.printFailedCasesTree(output.Details)
	}

	return nil
}

// TreeNode represents a node in the module tree structure
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.CaseFailure
	IsFile   bool
}

// printFailedCasesTree prints a tree structure of failed test cases
func (f *Formatter) printFailedCasesTree(failures []domain.CaseFailure) {
	if len(failures) == 0 {
		return
	}

	// Group failures by module path
	fileMap := make(map[string][]domain.CaseFailure)
	for _, failure := range failures {
		fileMap[failure.ModulePath] = append(fileMap[failure.ModulePath], failure)
	}

	root := &TreeNode{
		Name:     "",
		Children: make(map[string]*TreeNode),
		IsFile:   false,
	}

	// Process each module
	for modulePath, moduleFailures := range fileMap {
		parts := strings.Split(strings.TrimPrefix(modulePath, "./"), "/")
		current := root

		// Navigate/create tree nodes for each path part
		for i, part := range parts {
			if part == "" {
				continue
			}

			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsFile:   i == len(parts)-1,
				}
			}

			current = current.Children[part]

			// If this is the module file (last part), add failures
			if i == len(parts)-1 {
				current.Failures = moduleFailures
			}
		}
	}

	// Print tree recursively
	f.printTreeNode(root, "", true, true)
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string, isLast bool, isRoot bool) {
	// Sort children for consistent output
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Print children
	for i, key := range keys {
		child := node.Children[key]
		isLastChild := i == len(keys)-1

		// Determine connector
		var connector string
		if isRoot {
			connector = ""
		} else if isLastChild {
			connector = prefix + "   |_"
		} else {
			connector = prefix + "  |_"
		}

		// Print child node
		if child.IsFile {
			color.Yellow("%s%s", connector, child.Name)
		} else {
			color.Cyan("%s%s", connector, child.Name)
		}

		// Print test cases if this is a module file
		if child.IsFile && len(child.Failures) > 0 {
			for j, failure := range child.Failures {
				isLastCase := j == len(child.Failures)-1
				var casePrefix string
				if isLastChild {
					if isLastCase {
						casePrefix = strings.ReplaceAll(prefix, "|", " ") + "        |_"
					} else {
						casePrefix = prefix + "  |        |_"
					}
				} else {
					if isLastCase {
						casePrefix = prefix + "  |        |_"
					} else {
						casePrefix = prefix + "  |  |     |_"
					}
				}
				color.Red("%s%s", casePrefix, failure.TestName)
			}
		}

		// Recursively print children
		var newPrefix string
		if isRoot {
			newPrefix = "  "
		} else if isLastChild {
			newPrefix = strings.ReplaceAll(prefix, "|", " ") + "  "
		} else {
			newPrefix = prefix + "  |"
		}
		f.printTreeNode(child, newPrefix, isLastChild, false)
	}
}

// CountTestCases returns the total number of test cases across the given modules.
func (f *Formatter) CountTestCases(modules []string) (int, error) {
	var total int
	for _, module := range modules {
		cases, err := f.parser.FindTestCases(module)
		if err != nil {
			return 0, err
		}
		total += len(cases)
	}
	return total, nil
}

// PrintBootstrapModules prints the fixed module pair a bare run invokes,
// in invocation order, marking modules whose file is missing.
func (f *Formatter) PrintBootstrapModules(modules []domain.Module) error {
	color.Green("Bare run invokes %d module(s) in order:\n", len(modules))

	for i, module := range modules {
		relPath := module.Path
		if rel, err := filepath.Rel(f.config.ProjectPath, module.Path); err == nil {
			relPath = rel
		}

		marker := ""
		if _, err := os.Stat(module.Path); err != nil {
			marker = " " + color.RedString("[missing]")
		}

		connector := "├──"
		if i == len(modules)-1 {
			connector = "└──"
		}
		color.Cyan("%s %s (%s)%s", connector, module.Name, relPath, marker)
	}

	return nil
}

// normalizedPathForKey returns a path key for matching (same logic as commands package).
func normalizedPathForKey(projectPath, path string) string {
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

// PrintModuleList prints a list of modules, optionally with test cases.
// failedPaths is optional; if set, modules in this set are marked with [F]
// in red (from last run).
func (f *Formatter) PrintModuleList(modules []string, showTestCases bool, failedPaths map[string]struct{}) error {
	if showTestCases {
		// Display tree view with test cases
		color.Green("Found %d module(s) with test cases:\n", len(modules))

		for i, module := range modules {
			testCases, err := f.parser.FindTestCases(module)
			if err != nil {
				color.Red("Error reading module %s: %v", module, err)
				continue
			}

			// Get relative path for cleaner display
			relPath, err := filepath.Rel(f.config.ProjectPath, module)
			if err != nil {
				relPath = module
			}

			failMarker := ""
			if len(failedPaths) > 0 {
				key := normalizedPathForKey(f.config.ProjectPath, module)
				if _, ok := failedPaths[key]; ok {
					failMarker = " " + color.RedString("[F]")
				}
			}

			// Print module as root node
			isLastFile := i == len(modules)-1
			if isLastFile {
				color.Cyan("└── %s%s", relPath, failMarker)
			} else {
				color.Cyan("├── %s%s", relPath, failMarker)
			}

			// Print test cases as children
			if len(testCases) == 0 {
				var prefix string
				if isLastFile {
					prefix = "    └── "
				} else {
					prefix = "│   └── "
				}
				fmt.Printf("%s%s\n", prefix, color.RedString("(no test cases found)"))
			} else {
				for j, testCase := range testCases {
					isLastCase := j == len(testCases)-1

					var prefix string
					if isLastFile {
						if isLastCase {
							prefix = "    └── "
						} else {
							prefix = "    ├── "
						}
					} else {
						if isLastCase {
							prefix = "│   └── "
						} else {
							prefix = "│   ├── "
						}
					}

					fmt.Printf("%s%s\n", prefix, color.YellowString(testCase))
				}
			}

			// Add spacing between modules (except for the last one)
			if i < len(modules)-1 {
				fmt.Println()
			}
		}
	} else {
		// Display simple list of modules
		color.Green("Found %d module(s):\n", len(modules))

		for i, module := range modules {
			// Get relative path for cleaner display
			relPath, err := filepath.Rel(f.config.ProjectPath, module)
			if err != nil {
				relPath = module
			}

			failMarker := ""
			if len(failedPaths) > 0 {
				key := normalizedPathForKey(f.config.ProjectPath, module)
				if _, ok := failedPaths[key]; ok {
					failMarker = " " + color.RedString("[F]")
				}
			}

			if i == len(modules)-1 {
				color.Cyan("└── %s%s", relPath, failMarker)
			} else {
				color.Cyan("├── %s%s", relPath, failMarker)
			}
		}
	}

	return nil
}

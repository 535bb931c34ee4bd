package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters suite modules by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters module paths by name pattern using wildcard matching
// Supports patterns like "test_*.py" or "*control*"
func (f *Filter) FilterByName(modules []string, pattern string) []string {
	if pattern == "" {
		return modules
	}

	var filtered []string

	for _, module := range modules {
		// Get just the filename from the full path
		name := filepath.Base(module)

		// Try to match using filepath.Match (supports * and ? wildcards)
		matched, err := filepath.Match(pattern, name)
		if err == nil && matched {
			filtered = append(filtered, module)
			continue
		}

		// If pattern contains wildcards but filepath.Match didn't match,
		// try a more flexible substring match for patterns like "*control*"
		if strings.Contains(pattern, "*") {
			parts := strings.Split(pattern, "*")
			allPartsMatch := true
			hasNonEmptyPart := false
			for _, part := range parts {
				if part == "" {
					continue
				}
				hasNonEmptyPart = true
				if !strings.Contains(name, part) {
					allPartsMatch = false
					break
				}
			}
			if allPartsMatch && hasNonEmptyPart {
				filtered = append(filtered, module)
			}
			continue
		}

		// If no wildcards, do a simple contains check
		if !strings.Contains(pattern, "?") && strings.Contains(name, pattern) {
			filtered = append(filtered, module)
		}
	}

	return filtered
}

package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"
)

// Parser parses suite modules to extract test cases
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// Test functions and methods the discovery mechanism picks up. Both plain
// functions and unittest-style methods sit on a "def" line, methods just
// carry indentation.
var (
	testDefPattern      = regexp.MustCompile(`(?m)^\s*def\s+(test\w*)\s*\(`)
	asyncTestDefPattern = regexp.MustCompile(`(?m)^\s*async\s+def\s+(test\w*)\s*\(`)
)

// FindTestCases finds all test cases in a suite module
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}

	fileContent := string(content)
	casesMap := make(map[string]bool) // Use map to avoid duplicates

	for _, pattern := range []*regexp.Regexp{testDefPattern, asyncTestDefPattern} {
		for _, match := range pattern.FindAllStringSubmatch(fileContent, -1) {
			if len(match) > 1 {
				casesMap[match[1]] = true
			}
		}
	}

	// Convert map to sorted slice for consistent output
	var cases []string
	for c := range casesMap {
		cases = append(cases, c)
	}
	sort.Strings(cases)

	return cases, nil
}

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner scans for suite modules in a directory
type Scanner struct {
	skipDirs map[string]bool
}

// skipFiles are Python files that never carry runnable test cases
var skipFiles = map[string]bool{
	"__init__.py": true,
	"conftest.py": true,
	"setup.py":    true,
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan finds all suite modules in the given root directory
func (s *Scanner) Scan(root string) ([]string, error) {
	var modules []string

	// Clean and validate the root path
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("suite path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("suite path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") && name != "." && name != ".." {
				return filepath.SkipDir
			}

			if s.skipDirs[name] {
				return filepath.SkipDir
			}

			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(name, ".py") {
			return nil
		}
		if skipFiles[name] || strings.HasPrefix(name, ".") {
			return nil
		}

		modules = append(modules, path)
		return nil
	})

	return modules, err
}

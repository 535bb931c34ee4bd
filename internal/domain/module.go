package domain

import (
	"path/filepath"
	"strings"
)

// Module represents a suite module to be handed to the test tool
type Module struct {
	Name string // Module name without extension, e.g. "runtests"
	Path string // Full path to the module file
}

// ModuleFromPath builds a Module from a file path, deriving the name
// from the base name of the file.
func ModuleFromPath(path string) Module {
	base := filepath.Base(path)
	return Module{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

// Case represents a single test case within a module
type Case struct {
	Name       string // Test function name
	ModulePath string // Path to the module containing this case
}

package discovery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the optional suite manifest looked up in the project root.
const ManifestFileName = "mtest.yaml"

// Manifest pins the suite layout instead of scanning for it. Every field
// is optional, an absent manifest means scan-and-run.
type Manifest struct {
	Suite   string       `yaml:"suite,omitempty"`
	Runner  RunnerSpec   `yaml:"runner,omitempty"`
	Modules []ModuleSpec `yaml:"modules,omitempty"`
}

// RunnerSpec overrides the program the modules run under.
type RunnerSpec struct {
	Program string   `yaml:"program,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// ModuleSpec names one pinned suite module.
type ModuleSpec struct {
	Name string `yaml:"name"`
	File string `yaml:"file,omitempty"`
}

// LoadManifest reads the manifest at the given path. A missing file is not
// an error, it returns a nil manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	for i, mod := range m.Modules {
		if mod.Name == "" {
			return nil, fmt.Errorf("manifest %s: module %d has no name", path, i)
		}
	}

	return &m, nil
}

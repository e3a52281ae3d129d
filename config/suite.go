package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Suite describes a batch of benchmark kernels to run against one shared
// hardware configuration file; a kernel entry cannot override it. It is
// the YAML counterpart to the single current.conf file the original tool
// reads.
type Suite struct {
	Settings string   `yaml:"settings"` // path to a current.conf-style file
	Kernels  []Kernel `yaml:"kernels"`
}

// Kernel names one trace file to feed through the engine, plus where its
// result should be written.
type Kernel struct {
	Name      string `yaml:"name"`
	Trace     string `yaml:"trace"`
	OutputDir string `yaml:"output_dir"`
}

// LoadSuite reads a YAML benchmark-suite description from path.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite file %q: %w", path, err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("parse suite file %q: %w", path, err)
	}

	if len(suite.Kernels) == 0 {
		return Suite{}, fmt.Errorf("suite file %q: no kernels listed", path)
	}

	return suite, nil
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up at the first scan root.
const configFileName = ".depscan.yaml"

// fileConfig holds defaults read from .depscan.yaml. Pointer fields
// distinguish "absent" from an explicit zero; flags given on the
// command line always win over the file.
type fileConfig struct {
	Format     *string  `yaml:"format"`
	Depth      *int     `yaml:"depth"`
	Modules    *bool    `yaml:"modules"`
	Structures *bool    `yaml:"structures"`
	Methods    *bool    `yaml:"methods"`
	Excludes   []string `yaml:"excludes"`
}

// loadFileConfig reads .depscan.yaml under dir. A missing file is not
// an error; a malformed one is.
func loadFileConfig(dir string) (*fileConfig, error) {
	path := filepath.Join(dir, configFileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Package config loads per-project settings from a .retap.yml file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/retap/rewrite"
)

const FileName = ".retap.yml"

type Config struct {
	// Roots are the directories scanned for .java files.
	Roots []string `yaml:"roots"`
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the scanned root.
	Exclude []string `yaml:"exclude"`
	// Pattern is the method pattern to rewrite.
	Pattern string `yaml:"pattern"`
	// Verbosity raises the log level; the -v flag adds to it.
	Verbosity int `yaml:"verbosity"`
}

func Default() *Config {
	return &Config{
		Roots:   []string{"."},
		Pattern: rewrite.DefaultPattern,
	}
}

// LogVerbosity combines the configured verbosity with the -v flag count.
func (c *Config) LogVerbosity(flags int) int {
	return c.Verbosity + flags
}

// Load reads .retap.yml from dir, walking up to parent directories until one
// is found. A missing file is not an error; the defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path, err := find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	if cfg.Pattern == "" {
		cfg.Pattern = rewrite.DefaultPattern
	}
	return cfg, nil
}

func find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Package config loads the optional structindex.yaml project
// configuration and the PROJECT_ROOT environment variable, per spec §6.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kestrel-dev/structindex/internal/discover"
)

// FileName is the optional per-project config file, read from the
// project root if present.
const FileName = "structindex.yaml"

// Config holds discovery and resolution settings that can be overridden
// per project. Every field has a spec-defined default.
type Config struct {
	Include     []string          `yaml:"include"`
	Exclude     []string          `yaml:"exclude"`
	MaxFileSize int64             `yaml:"max_file_size"`
	TSAliases   map[string]string `yaml:"ts_aliases"`   // e.g. "@/": "src/"
	PySrcRoots  []string          `yaml:"py_src_roots"` // e.g. "", "src/", "lib/"
}

// Default returns the spec-default configuration.
func Default() Config {
	return Config{
		MaxFileSize: discover.DefaultMaxFileSize,
		TSAliases:   map[string]string{"@/": "src/"},
		PySrcRoots:  []string{"", "src/", "lib/"},
	}
}

// Load reads structindex.yaml from root if present and overlays it onto
// Default(). A missing file is not an error; a malformed file is.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = discover.DefaultMaxFileSize
	}
	if cfg.TSAliases == nil {
		cfg.TSAliases = map[string]string{"@/": "src/"}
	}
	if cfg.PySrcRoots == nil {
		cfg.PySrcRoots = []string{"", "src/", "lib/"}
	}
	return cfg, nil
}

// ProjectRoot resolves PROJECT_ROOT from the environment, falling back
// to the current working directory per spec §6.
func ProjectRoot() (string, error) {
	if v := os.Getenv("PROJECT_ROOT"); v != "" {
		return filepath.Abs(v)
	}
	return os.Getwd()
}

// DiscoverOptions adapts Config to discover.Options.
func (c Config) DiscoverOptions() *discover.Options {
	return &discover.Options{
		Include:     c.Include,
		Exclude:     c.Exclude,
		MaxFileSize: c.MaxFileSize,
		PySrcRoots:  c.PySrcRoots,
		TSAliases:   c.TSAliases,
	}
}

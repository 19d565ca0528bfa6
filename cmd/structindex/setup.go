package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kestrel-dev/structindex/internal/config"
	"github.com/kestrel-dev/structindex/internal/index"
)

// resolveRoot honors --root, falling back to PROJECT_ROOT/cwd per
// config.ProjectRoot, and requires the result to be a directory.
func resolveRoot() (string, error) {
	root := flagRoot
	if root == "" {
		r, err := config.ProjectRoot()
		if err != nil {
			return "", fmt.Errorf("resolving project root: %w", err)
		}
		root = r
	} else {
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("resolving --root %q: %w", root, err)
		}
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", root)
	}
	return root, nil
}

// newBuilder loads structindex.yaml (if present) and constructs a
// Builder for root, per spec §6's "PROJECT_ROOT and optional
// structindex.yaml are the only configuration inputs" — both are
// resolved once here and passed down as explicit values.
func newBuilder(root string) (*index.Builder, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", config.FileName, err)
	}
	return index.NewBuilder(root, cfg.DiscoverOptions()), nil
}

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/CantTolerateYou/ustx"
)

// loadRegistry returns the default expression descriptors, merged with the
// ones in the user config file (ustx/expressions.yml in the user config
// directory) and in extraPath, if given.
func loadRegistry(extraPath string) (*ustx.ExpressionRegistry, error) {
	registry := ustx.DefaultExpressionRegistry()
	if configDir, err := os.UserConfigDir(); err == nil {
		custom, err := readRegistry(filepath.Join(configDir, "ustx", "expressions.yml"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if custom != nil {
			registry.Merge(custom)
		}
	}
	if extraPath != "" {
		extra, err := readRegistry(extraPath)
		if err != nil {
			return nil, err
		}
		registry.Merge(extra)
	}
	return registry, nil
}

func readRegistry(path string) (*ustx.ExpressionRegistry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ustx.ParseExpressionRegistry(b)
}

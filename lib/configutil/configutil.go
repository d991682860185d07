package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// readJson5 decodes a single json5 file into T. The second return value
// reports whether the file existed at all.
func readJson5[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, true, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

func localPath(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, prefix+".local"+ext)
}

// ReadConfig reads a json5 configuration file, then merges in an optional
// `<name>.local.<ext>` sibling, the local file winning on conflicts.
// If neither file exists it returns os.ErrNotExist.
func ReadConfig[T any](name string) (T, error) {
	out, foundDefault, err := readJson5[T](name)
	if err != nil {
		return out, err
	}

	local := localPath(name)
	override, foundLocal, err := readJson5[T](local)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", local)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it walks up the filesystem from the
// cwd until the root to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}

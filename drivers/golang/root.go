package golang

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rootSearchLevels is how many directory levels below the requested one are
// scanned for go.mod. Proxy downloads unpack to <tmp>/<module>@<version>, so
// the module normally sits one level down.
const rootSearchLevels = 2

// ErrNoModule is returned when no go.mod exists near the given directory.
var ErrNoModule = errors.New("no go.mod found")

// FindSourceRoot returns the directory holding the module's go.mod: dir itself
// or, level by level, the shallowest directory below it. Within a level the
// lexically first directory wins. Hidden, vendor and testdata directories are
// skipped.
func FindSourceRoot(dir string) (string, error) {
	level := []string{dir}
	for depth := 0; depth <= rootSearchLevels; depth++ {
		var next []string
		for _, candidate := range level {
			if isModuleRoot(candidate) {
				return candidate, nil
			}
			if depth == rootSearchLevels {
				continue
			}
			subdirs, err := searchableSubdirs(candidate)
			if err != nil {
				return "", fmt.Errorf("searching for go.mod: %w", err)
			}
			next = append(next, subdirs...)
		}
		level = next
	}
	return "", fmt.Errorf("%w under %s", ErrNoModule, dir)
}

func searchableSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func isModuleRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && info.Mode().IsRegular()
}

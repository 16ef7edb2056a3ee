package gomod

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrModuleNotRequired is returned when go.mod has no require line for the module.
var ErrModuleNotRequired = errors.New("module not required")

func parse(dir string) (*modfile.File, error) {
	gomodPath := filepath.Join(dir, "go.mod")

	data, err := os.ReadFile(gomodPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no go.mod found at %s", gomodPath)
		}
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	f, err := modfile.Parse(gomodPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	return f, nil
}

// FindModulePath returns the module path declared by the go.mod in dir.
func FindModulePath(dir string) (string, error) {
	f, err := parse(dir)
	if err != nil {
		return "", err
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return "", fmt.Errorf("go.mod in %s has no module directive", dir)
	}
	return f.Module.Mod.Path, nil
}

// Requirement is a require directive for one module.
type Requirement struct {
	Version string
	// Replaced is set when a replace directive targets the module, in which
	// case the proxy version may differ from the source actually built.
	Replaced bool
}

// FindRequirement reads the go.mod in repoPath and returns the required
// version of module.
func FindRequirement(repoPath, module string) (Requirement, error) {
	f, err := parse(repoPath)
	if err != nil {
		return Requirement{}, err
	}

	var req Requirement
	for _, rep := range f.Replace {
		if rep.Old.Path == module {
			req.Replaced = true
			break
		}
	}

	for _, r := range f.Require {
		if r.Mod.Path == module {
			req.Version = r.Mod.Version
			return req, nil
		}
	}
	return Requirement{}, fmt.Errorf("%w: %s in %s", ErrModuleNotRequired, module, filepath.Join(repoPath, "go.mod"))
}

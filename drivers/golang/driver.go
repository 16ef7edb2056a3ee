// Package golang is the Go module driver: it downloads published module
// versions from the module proxy and extracts their exported API as a
// structural model.
package golang

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/mod/module"

	"github.com/emenda-labs/semdiff/core/driver"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/pkg/archive"
	"github.com/emenda-labs/semdiff/pkg/gomod"
	"github.com/emenda-labs/semdiff/pkg/goproxy"
)

var _ driver.LanguageDriver = (*Driver)(nil)

// Driver implements driver.LanguageDriver for Go modules.
type Driver struct {
	proxyClient *goproxy.Client
	extractor   *Extractor
	logger      *slog.Logger
}

// NewDriver creates a Driver whose proxy chain comes from GOPROXY.
func NewDriver(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		proxyClient: goproxy.NewClient(logger),
		extractor:   NewExtractor(logger),
		logger:      logger,
	}
}

// FetchSource downloads the module zip from the proxy and extracts it to a temp directory.
func (d *Driver) FetchSource(ctx context.Context, mod, version string) (string, func(), error) {
	if err := module.Check(mod, version); err != nil {
		return "", nil, fmt.Errorf("invalid module version: %w", err)
	}

	data, err := d.proxyClient.DownloadZip(ctx, mod, version)
	if err != nil {
		return "", nil, fmt.Errorf("downloading zip for %s@%s: %w", mod, version, err)
	}

	dir, cleanup, err := archive.ExtractZip(data, version)
	if err != nil {
		return "", nil, fmt.Errorf("extracting zip for %s@%s: %w", mod, version, err)
	}
	return dir, cleanup, nil
}

// Extract builds the model of the module rooted at or just below dir.
func (d *Driver) Extract(ctx context.Context, dir string) (*model.Snapshot, error) {
	return d.extractor.Extract(ctx, dir)
}

// Pair holds the models of two versions of the same module.
type Pair struct {
	Module   string
	Old, New *model.Snapshot
}

// ExtractPair extracts two unpacked versions and checks that both declare the
// same module path.
func (d *Driver) ExtractPair(ctx context.Context, oldDir, newDir string) (*Pair, error) {
	oldRoot, err := FindSourceRoot(oldDir)
	if err != nil {
		return nil, fmt.Errorf("finding module root in %s: %w", oldDir, err)
	}
	mod, err := gomod.FindModulePath(oldRoot)
	if err != nil {
		return nil, fmt.Errorf("reading module path from %s: %w", oldDir, err)
	}

	newRoot, err := FindSourceRoot(newDir)
	if err != nil {
		return nil, fmt.Errorf("finding module root in %s: %w", newDir, err)
	}
	newMod, err := gomod.FindModulePath(newRoot)
	if err != nil {
		return nil, fmt.Errorf("reading module path from %s: %w", newDir, err)
	}
	if mod != newMod {
		return nil, fmt.Errorf("module mismatch: old=%s new=%s", mod, newMod)
	}

	old, err := d.extractor.ExtractModule(ctx, oldRoot, mod)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", oldDir, err)
	}
	new, err := d.extractor.ExtractModule(ctx, newRoot, mod)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", newDir, err)
	}
	return &Pair{Module: mod, Old: old, New: new}, nil
}

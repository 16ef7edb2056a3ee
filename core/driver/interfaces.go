package driver

import (
	"context"

	"github.com/emenda-labs/semdiff/core/model"
)

// Extractor builds the structural model of a library's public surface from a
// source tree. Per-file failures are recorded in Snapshot.Errors; a non-nil
// error means no model could be produced at all.
type Extractor interface {
	Extract(ctx context.Context, root string) (*model.Snapshot, error)
}

// SourceFetcher downloads a published module version and unpacks it to a
// local directory. The cleanup function removes the directory.
type SourceFetcher interface {
	FetchSource(ctx context.Context, module, version string) (path string, cleanup func(), err error)
}

// LanguageDriver is implemented by drivers that can both fetch published
// versions and extract a model from them.
type LanguageDriver interface {
	SourceFetcher
	Extractor
}

package compare

import (
	"log/slog"
	"runtime"

	"github.com/emenda-labs/semdiff/core/rename"
)

// DefaultMaxDepth caps nested structural recursion.
const DefaultMaxDepth = 32

// Options configures DiffModules. The zero value is usable.
type Options struct {
	// Workers bounds the number of per-export comparisons run in parallel.
	Workers int
	// MaxDepth caps how deep nested shapes are compared. Deeper differences are
	// reported as a single type change tagged depth-limit.
	MaxDepth int
	// RenameThreshold is the minimum score for rename detection.
	RenameThreshold float64
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns options sized for the current machine.
func DefaultOptions() Options {
	return Options{
		Workers:         runtime.GOMAXPROCS(0),
		MaxDepth:        DefaultMaxDepth,
		RenameThreshold: rename.DefaultThreshold,
	}
}

func (o Options) normalized() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.RenameThreshold <= 0 {
		o.RenameThreshold = rename.DefaultThreshold
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

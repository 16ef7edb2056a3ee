package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Limits guarding against zip bombs.
const (
	maxFileSize  = 100 << 20 // per file
	maxTotalSize = 1 << 30   // total extracted
	maxFileCount = 50000
)

// ExtractZip unpacks a zip archive to a new temp directory and returns its
// path with a cleanup function that removes it. Entries that would escape the
// directory and symlinks are rejected or skipped; size limits are enforced.
func ExtractZip(data []byte, prefix string) (dir string, cleanup func(), err error) {
	tmpDir, err := os.MkdirTemp("", "semdiff-"+sanitize(prefix)+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanupFn := func() { os.RemoveAll(tmpDir) }
	defer func() {
		if err != nil {
			cleanupFn()
		}
	}()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read zip archive: %w", err)
	}
	if len(reader.File) > maxFileCount {
		return "", nil, fmt.Errorf("zip archive contains %d files, exceeds maximum of %d", len(reader.File), maxFileCount)
	}

	base, err := filepath.Abs(tmpDir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	var total int64
	for _, file := range reader.File {
		if file.Mode()&os.ModeSymlink != 0 {
			continue
		}

		target, err := safeJoin(base, file.Name)
		if err != nil {
			return "", nil, err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", nil, fmt.Errorf("failed to create directory %s: %w", file.Name, err)
			}
			continue
		}

		n, err := extractFile(file, target)
		if err != nil {
			return "", nil, err
		}
		total += n
		if total > maxTotalSize {
			return "", nil, fmt.Errorf("total extracted size exceeds maximum of %d bytes", maxTotalSize)
		}
	}

	return tmpDir, cleanupFn, nil
}

// safeJoin resolves name under base and rejects zip-slip paths.
func safeJoin(base, name string) (string, error) {
	target, err := filepath.Abs(filepath.Join(base, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", name, err)
	}
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("zip entry attempts path traversal: %s", name)
	}
	return target, nil
}

func extractFile(file *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create parent directory for %s: %w", file.Name, err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", file.Name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		return n, fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	if n > maxFileSize {
		return n, fmt.Errorf("file %s exceeds maximum size of %d bytes", file.Name, maxFileSize)
	}
	return n, nil
}

// sanitize keeps a temp directory prefix free of path separators.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, s)
}

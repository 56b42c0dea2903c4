// Package corpus discovers source documents on disk. The corpus directory is
// read-only input: documents are filtered by an extension allow-list and a
// maximum file size, and listed in stable lexical order.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one candidate document found in the corpus directory.
// Path is relative to the corpus root and slash-separated, so it is stable
// across operating systems and usable as a storage key.
type Entry struct {
	Path string
	Size int64
}

// Loader lists and reads source documents from a corpus directory.
type Loader struct {
	root       string
	extensions map[string]struct{}
	maxBytes   int64
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a loader rooted at root. Extensions are matched
// case-insensitively and must include the leading dot. Files larger than
// maxFileSizeMB are skipped.
func NewLoader(root string, extensions []string, maxFileSizeMB int, opts ...Option) *Loader {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	l := &Loader{
		root:       root,
		extensions: allowed,
		maxBytes:   int64(maxFileSizeMB) * 1024 * 1024,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List walks the corpus directory recursively and returns the documents that
// pass the extension and size filters, in lexical path order. Skipped files
// are logged, not errors.
func (l *Loader) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := l.extensions[ext]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > l.maxBytes {
			l.logger.Warn("skipping oversized file",
				"path", path, "size", info.Size(), "limit", l.maxBytes)
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}

		entries = append(entries, Entry{
			Path: filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing corpus %s: %w", l.root, err)
	}

	return entries, nil
}

// Read returns the raw bytes of a document by its relative path.
func (l *Loader) Read(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.root, filepath.FromSlash(relPath)))
}

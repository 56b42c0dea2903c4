// Package extract pulls plain text out of raw source documents. Extraction is
// text-only: image-only PDF pages are ignored and there is no OCR fallback.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

var (
	// ErrUnsupported indicates no extractor is registered for the file type.
	ErrUnsupported = errors.New("unsupported document type")

	// ErrNoText indicates the document contained no extractable text.
	ErrNoText = errors.New("no text content found")
)

// Extractor pulls plain text from a document's raw bytes.
type Extractor interface {
	Extract(ctx context.Context, path string, data []byte) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	extractors map[string]Extractor
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates a registry with the built-in extractors: PDF, plain
// text, and Markdown.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		extractors: map[string]Extractor{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	pdf := &pdfExtractor{logger: r.logger}
	text := &textExtractor{}
	r.Register(".pdf", pdf)
	r.Register(".txt", text)
	r.Register(".md", text)

	return r
}

// Register adds or replaces the extractor for an extension (with leading dot).
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Extract runs the extractor matching the path's extension.
func (r *Registry) Extract(ctx context.Context, path string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return e.Extract(ctx, path, data)
}

// pdfExtractor extracts text from PDF documents, one page at a time.
// Pages without text are dropped; remaining pages are joined with a blank
// line, preserving page order.
type pdfExtractor struct {
	logger *slog.Logger
}

func (e *pdfExtractor) Extract(ctx context.Context, path string, data []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading pdf %s: %w", path, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if text := strings.TrimSpace(doc.PageContent); text != "" {
			pages = append(pages, text)
		}
	}

	e.logger.Debug("extracted pdf", "path", path, "pages", len(docs), "pagesWithText", len(pages))

	if len(pages) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}

	return strings.Join(pages, "\n\n"), nil
}

// textExtractor handles plain text and Markdown files.
type textExtractor struct{}

func (e *textExtractor) Extract(ctx context.Context, path string, data []byte) (string, error) {
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return text, nil
}

// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/knowledge/ai"
	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/storage"
)

// Extractor converts a document's raw bytes into plain text.
// *extract.Registry satisfies it.
type Extractor interface {
	Extract(ctx context.Context, path string, data []byte) (string, error)
}

// Chunker splits extracted text into chunks. *chunk.Chunker satisfies it.
type Chunker interface {
	Split(docPath, text string) ([]*core.Chunk, error)
}

// ProgressFunc is invoked after each document task completes.
// done counts completed tasks; total is the number of pending tasks for the
// run (unchanged documents are not tasks).
type ProgressFunc func(done, total int)

// Coordinator drives incremental ingestion runs.
type Coordinator struct {
	source    Source
	extractor Extractor
	chunker   Chunker
	embedder  ai.Embedder
	index     storage.FingerprintIndex
	vectors   storage.VectorRepository

	pool        *ants.Pool
	maxAttempts int
	retryDelay  time.Duration
	progress    ProgressFunc
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithConcurrency sets the number of documents processed in parallel.
// Default is 1; each document is handled by exactly one worker.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) error {
		if n < 1 {
			n = 1
		}

		if c.pool != nil {
			c.pool.Release()
		}

		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithRetry sets the retry policy for embedding calls.
// Defaults are 3 attempts with a 1s base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Coordinator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithProgress sets a callback reporting per-document completion.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) error {
		c.progress = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(
	source Source,
	extractor Extractor,
	chunker Chunker,
	embedder ai.Embedder,
	index storage.FingerprintIndex,
	vectors storage.VectorRepository,
	opts ...Option,
) (*Coordinator, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if vectors == nil {
		return nil, ErrRepositoryRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		source:      source,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		vectors:     vectors,
		pool:        pool,
		maxAttempts: 3,
		retryDelay:  time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Run executes one ingestion pass: classify every document, process the new
// and changed ones, delete the removed ones, and leave unchanged documents
// untouched. force re-processes every present document regardless of its
// fingerprint.
//
// Document failures are isolated: they are recorded in the Summary and the
// run continues. Run itself returns an error only when planning fails.
func (c *Coordinator) Run(ctx context.Context, force bool) (*Summary, error) {
	start := time.Now()

	plan, err := BuildPlan(ctx, c.source, c.index, force)
	if err != nil {
		return nil, err
	}

	total := plan.Pending()
	c.logger.Info("ingestion run planned",
		"documents", len(plan.Docs), "pending", total, "removed", len(plan.Removed), "force", force)

	builder := &summaryBuilder{}

	var wg sync.WaitGroup
	var done int
	var doneMu sync.Mutex

	advance := func() {
		if c.progress == nil {
			return
		}
		doneMu.Lock()
		done++
		current := done
		doneMu.Unlock()
		c.progress(current, total)
	}

	submit := func(path string, task func() error) {
		wg.Add(1)
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			if err := task(); err != nil {
				c.logger.Error("document failed", "path", path, "err", err)
				builder.addFailure(path, err)
			}
			advance()
		})
		if submitErr != nil {
			wg.Done()
			builder.addFailure(path, submitErr)
			advance()
		}
	}

	for _, doc := range plan.Docs {
		if doc.State == core.StateUnchanged {
			builder.addSkipped()
			continue
		}

		submit(doc.Path, func() error {
			chunks, err := c.processDocument(ctx, doc)
			if err != nil {
				return err
			}
			builder.addIngested(chunks)
			return nil
		})
	}

	for _, path := range plan.Removed {
		submit(path, func() error {
			if err := c.removeDocument(ctx, path); err != nil {
				return err
			}
			builder.addRemoved()
			return nil
		})
	}

	wg.Wait()

	summary := builder.build(time.Since(start))
	c.logger.Info("ingestion run finished",
		"ingested", summary.Ingested, "skipped", summary.Skipped,
		"removed", summary.Removed, "failed", summary.Failed,
		"chunks", summary.ChunksWritten, "elapsed", summary.Elapsed)

	return summary, nil
}

// processDocument runs the extract-chunk-embed-store pipeline for one
// document and returns the number of chunks written. The fingerprint record
// is written only after the chunk set has been committed, so an interrupted
// run re-processes the document instead of losing it.
func (c *Coordinator) processDocument(ctx context.Context, doc PlannedDoc) (int, error) {
	data, err := c.source.Read(doc.Path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", doc.Path, err)
	}
	fingerprint := core.FingerprintFromBytes(data)

	text, err := c.extractor.Extract(ctx, doc.Path, data)
	if err != nil {
		return 0, fmt.Errorf("extracting %s: %w", doc.Path, err)
	}

	chunks, err := c.chunker.Split(doc.Path, text)
	if err != nil {
		return 0, fmt.Errorf("chunking %s: %w", doc.Path, err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err = RetryWithBackoff(ctx, func() error {
		embedded, embedErr := c.embedder.EmbedTexts(ctx, texts)
		if embedErr != nil {
			return embedErr
		}
		vectors = embedded
		return nil
	}, c.maxAttempts, c.retryDelay)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", doc.Path, err)
	}

	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", doc.Path, len(vectors), len(chunks))
	}

	model := c.embedder.Model()
	for i, chunk := range chunks {
		chunk.Vector = core.NormalizeVector(vectors[i])
		chunk.Model = model
	}

	if err := c.vectors.ReplaceDocument(ctx, doc.Path, chunks); err != nil {
		return 0, fmt.Errorf("storing %s: %w", doc.Path, err)
	}

	record := &core.FingerprintRecord{
		Path:        doc.Path,
		Fingerprint: fingerprint,
		Size:        int64(len(data)),
		ChunkCount:  len(chunks),
		ProcessedAt: time.Now().UTC(),
	}
	if err := c.index.Put(ctx, record); err != nil {
		return 0, fmt.Errorf("indexing %s: %w", doc.Path, err)
	}

	c.logger.Debug("document ingested", "path", doc.Path, "state", doc.State, "chunks", len(chunks))
	return len(chunks), nil
}

// removeDocument deletes a document's chunks and its fingerprint record.
// The chunk set is removed first so a failure between the two writes leaves
// a stale fingerprint rather than orphaned chunks; the next run repairs it.
func (c *Coordinator) removeDocument(ctx context.Context, path string) error {
	if err := c.vectors.DeleteDocument(ctx, path); err != nil {
		return fmt.Errorf("deleting chunks of %s: %w", path, err)
	}
	if err := c.index.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting fingerprint of %s: %w", path, err)
	}

	c.logger.Debug("document removed", "path", path)
	return nil
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

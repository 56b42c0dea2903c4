package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/knowledge/ai/mock"
	"github.com/poiesic/knowledge/chunk"
	"github.com/poiesic/knowledge/corpus"
	"github.com/poiesic/knowledge/extract"
	"github.com/poiesic/knowledge/ingest"
	"github.com/poiesic/knowledge/storage"
	storagebadger "github.com/poiesic/knowledge/storage/badger"
)

type fixture struct {
	dir      string
	loader   *corpus.Loader
	embedder *mock.MockEmbedder
	index    storage.FingerprintIndex
	vectors  storage.VectorRepository
	coord    *ingest.Coordinator
}

func setup(t *testing.T, opts ...ingest.Option) *fixture {
	t.Helper()

	dir := t.TempDir()
	loader := corpus.NewLoader(dir, []string{".txt", ".md"}, 50)
	embedder := mock.NewMockEmbedder()

	index, vectors, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	chunker, err := chunk.NewChunker(chunk.RuneTokenizer{}, 64, 16)
	require.NoError(t, err)

	opts = append([]ingest.Option{ingest.WithRetry(1, time.Millisecond)}, opts...)
	coord, err := ingest.NewCoordinator(loader, extract.NewRegistry(), chunker, embedder, index, vectors, opts...)
	require.NoError(t, err)
	t.Cleanup(coord.Release)

	return &fixture{
		dir:      dir,
		loader:   loader,
		embedder: embedder,
		index:    index,
		vectors:  vectors,
		coord:    coord,
	}
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_NewDocuments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", strings.Repeat("alpha document text. ", 20))
	writeDoc(t, f.dir, "sub/b.md", "short note")

	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.True(t, summary.Ok())
	assert.Greater(t, summary.ChunksWritten, 1)

	chunks, err := f.vectors.GetDocumentChunks(ctx, "a.txt")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.NotEmpty(t, chunks[0].Vector)
	assert.Equal(t, "mock-embedder", chunks[0].Model)

	record, err := f.index.Get(ctx, "sub/b.md")
	require.NoError(t, err)
	assert.Equal(t, 1, record.ChunkCount)
	assert.Equal(t, int64(len("short note")), record.Size)
}

func TestRun_UnchangedDoesNoWork(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "stable content")
	writeDoc(t, f.dir, "b.txt", "more stable content")

	_, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	f.embedder.Reset()
	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, f.embedder.CallCount())
}

func TestRun_ChangedDocumentReindexed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "original wording")
	writeDoc(t, f.dir, "b.txt", "untouched")

	_, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	writeDoc(t, f.dir, "a.txt", "rewritten wording")
	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 1, summary.Skipped)

	chunks, err := f.vectors.GetDocumentChunks(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "rewritten wording", chunks[0].Text)
}

func TestRun_RemovedDocumentDeleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "here today")
	writeDoc(t, f.dir, "b.txt", "staying")

	_, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "a.txt")))
	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 1, summary.Skipped)

	chunks, err := f.vectors.GetDocumentChunks(ctx, "a.txt")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = f.index.Get(ctx, "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_ForceReindexesUnchanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "stable")
	writeDoc(t, f.dir, "b.txt", "also stable")

	_, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	f.embedder.Reset()
	summary, err := f.coord.Run(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, f.embedder.CallCount())
}

func TestRun_FailureIsIsolated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "bad.txt", "poison pill")
	writeDoc(t, f.dir, "good.txt", "healthy content")

	wantErr := errors.New("provider unavailable")
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, "poison") {
				return nil, wantErr
			}
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0}
		}
		return vectors, nil
	}

	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Ok())
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "bad.txt", summary.Failures[0].Path)
	assert.ErrorIs(t, summary.Failures[0].Err, wantErr)

	// The failed document left no trace: no chunks, no fingerprint.
	chunks, err := f.vectors.GetDocumentChunks(ctx, "bad.txt")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, err = f.index.Get(ctx, "bad.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The healthy document completed normally.
	_, err = f.index.Get(ctx, "good.txt")
	require.NoError(t, err)
}

func TestRun_FailedDocumentRetriedNextRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "flaky target")

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	// Provider recovers: the document is still unindexed so the next run
	// picks it up as new.
	f.embedder.EmbedTextsFunc = nil
	summary, err = f.coord.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)

	// And the run after that has nothing to do.
	summary, err = f.coord.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Ingested)
}

func TestRun_EmbeddingRetried(t *testing.T) {
	f := setup(t, ingest.WithRetry(3, time.Millisecond))
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "eventually embeds")

	var mu sync.Mutex
	calls := 0
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 1}
		}
		return vectors, nil
	}

	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)
	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
}

func TestRun_Concurrent(t *testing.T) {
	f := setup(t, ingest.WithConcurrency(4))
	ctx := context.Background()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		writeDoc(t, f.dir, name, "content of "+name)
	}

	summary, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)

	stats, err := f.vectors.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Documents)
}

func TestRun_Progress(t *testing.T) {
	var mu sync.Mutex
	var updates [][2]int
	f := setup(t, ingest.WithProgress(func(done, total int) {
		mu.Lock()
		updates = append(updates, [2]int{done, total})
		mu.Unlock()
	}))
	ctx := context.Background()
	writeDoc(t, f.dir, "a.txt", "one")
	writeDoc(t, f.dir, "b.txt", "two")

	_, err := f.coord.Run(ctx, false)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 2)
	assert.Equal(t, [2]int{1, 2}, updates[0])
	assert.Equal(t, [2]int{2, 2}, updates[1])
}

func TestNewCoordinator_Validation(t *testing.T) {
	f := setup(t)
	chunker, err := chunk.NewChunker(chunk.RuneTokenizer{}, 8, 2)
	require.NoError(t, err)
	registry := extract.NewRegistry()

	_, err = ingest.NewCoordinator(nil, registry, chunker, f.embedder, f.index, f.vectors)
	assert.ErrorIs(t, err, ingest.ErrSourceRequired)

	_, err = ingest.NewCoordinator(f.loader, nil, chunker, f.embedder, f.index, f.vectors)
	assert.ErrorIs(t, err, ingest.ErrExtractorRequired)

	_, err = ingest.NewCoordinator(f.loader, registry, nil, f.embedder, f.index, f.vectors)
	assert.ErrorIs(t, err, ingest.ErrChunkerRequired)

	_, err = ingest.NewCoordinator(f.loader, registry, chunker, nil, f.index, f.vectors)
	assert.ErrorIs(t, err, ingest.ErrEmbedderRequired)

	_, err = ingest.NewCoordinator(f.loader, registry, chunker, f.embedder, nil, f.vectors)
	assert.ErrorIs(t, err, ingest.ErrIndexRequired)

	_, err = ingest.NewCoordinator(f.loader, registry, chunker, f.embedder, f.index, nil)
	assert.ErrorIs(t, err, ingest.ErrRepositoryRequired)
}

package knowledge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/knowledge"
	"github.com/poiesic/knowledge/ai/mock"
	"github.com/poiesic/knowledge/chunk"
	"github.com/poiesic/knowledge/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Corpus.Path = t.TempDir()
	cfg.Store.Path = filepath.Join(t.TempDir(), "store")
	cfg.Chunking.ChunkSize = 64
	cfg.Chunking.ChunkOverlap = 16
	return cfg
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.Path = "" // required

	_, err := knowledge.Open(cfg)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestEndToEnd_IngestThenSearch(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Corpus.Path, "badger.txt"),
		[]byte("Badger is an embeddable key-value store written in Go."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Corpus.Path, "tea.md"),
		[]byte("Green tea should steep below boiling temperature."), 0o644))

	kb, err := knowledge.Open(cfg,
		knowledge.WithEmbedder(mock.NewMockEmbedder()),
		knowledge.WithTokenizer(chunk.RuneTokenizer{}),
		knowledge.WithInMemoryStore(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })

	coord, err := kb.NewCoordinator()
	require.NoError(t, err)
	t.Cleanup(coord.Release)

	ctx := context.Background()
	summary, err := coord.Run(ctx, false)
	require.NoError(t, err)
	require.True(t, summary.Ok())
	assert.Equal(t, 2, summary.Ingested)

	stats, err := kb.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)

	// The mock embeds the query and the matching chunk to the same vector,
	// so the exact text ranks first.
	searcher, err := kb.NewSearcher()
	require.NoError(t, err)

	results, err := searcher.Search(ctx, "Badger is an embeddable key-value store written in Go.", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "badger.txt", results[0].Chunk.DocPath)
}

func TestEndToEnd_SecondRunSkips(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Corpus.Path, "a.txt"),
		[]byte("stable document"), 0o644))

	embedder := mock.NewMockEmbedder()
	kb, err := knowledge.Open(cfg,
		knowledge.WithEmbedder(embedder),
		knowledge.WithTokenizer(chunk.RuneTokenizer{}),
		knowledge.WithInMemoryStore(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })

	coord, err := kb.NewCoordinator()
	require.NoError(t, err)
	t.Cleanup(coord.Release)

	ctx := context.Background()
	_, err = coord.Run(ctx, false)
	require.NoError(t, err)

	embedder.Reset()
	summary, err := coord.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, embedder.CallCount())
}

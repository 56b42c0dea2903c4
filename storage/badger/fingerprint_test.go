package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/storage"
)

func setupIndex(t *testing.T) storage.FingerprintIndex {
	t.Helper()
	index, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return index
}

func record(path, content string) *core.FingerprintRecord {
	return &core.FingerprintRecord{
		Path:        path,
		Fingerprint: core.FingerprintFromBytes([]byte(content)),
		Size:        int64(len(content)),
		ChunkCount:  3,
		ProcessedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestFingerprintIndex_PutGet(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	want := record("docs/a.pdf", "content a")
	require.NoError(t, index.Put(ctx, want))

	got, err := index.Get(ctx, "docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, want.Path, got.Path)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.ChunkCount, got.ChunkCount)
	assert.True(t, want.ProcessedAt.Equal(got.ProcessedAt))
}

func TestFingerprintIndex_GetMissing(t *testing.T) {
	index := setupIndex(t)

	_, err := index.Get(context.Background(), "docs/unknown.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFingerprintIndex_PutReplaces(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Put(ctx, record("docs/a.pdf", "v1")))
	require.NoError(t, index.Put(ctx, record("docs/a.pdf", "v2")))

	got, err := index.Get(ctx, "docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, core.FingerprintFromBytes([]byte("v2")), got.Fingerprint)
}

func TestFingerprintIndex_Delete(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Put(ctx, record("docs/a.pdf", "content")))
	require.NoError(t, index.Delete(ctx, "docs/a.pdf"))

	_, err := index.Get(ctx, "docs/a.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting an absent path is not an error
	require.NoError(t, index.Delete(ctx, "docs/a.pdf"))
}

func TestFingerprintIndex_All(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Put(ctx, record("b.pdf", "b")))
	require.NoError(t, index.Put(ctx, record("a.pdf", "a")))
	require.NoError(t, index.Put(ctx, record("c/d.pdf", "d")))

	records, err := index.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Ordered by path
	assert.Equal(t, "a.pdf", records[0].Path)
	assert.Equal(t, "b.pdf", records[1].Path)
	assert.Equal(t, "c/d.pdf", records[2].Path)
}

func TestFingerprintIndex_PutInvalid(t *testing.T) {
	index := setupIndex(t)

	assert.Error(t, index.Put(context.Background(), nil))
	assert.Error(t, index.Put(context.Background(), &core.FingerprintRecord{}))
}

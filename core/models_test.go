package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintFromBytes_Stable(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	first := FingerprintFromBytes(data)
	second := FingerprintFromBytes(data)

	assert.Equal(t, first, second)
	assert.Len(t, string(first), 64) // 32 bytes hex encoded
}

func TestFingerprintFromBytes_ChangesWithContent(t *testing.T) {
	base := FingerprintFromBytes([]byte("some document content"))

	// A single byte flip must produce a different fingerprint
	assert.NotEqual(t, base, FingerprintFromBytes([]byte("some document contenT")))
	assert.NotEqual(t, base, FingerprintFromBytes([]byte("some document content ")))
	assert.NotEqual(t, base, FingerprintFromBytes(nil))
}

func TestFingerprintFile_MatchesBytes(t *testing.T) {
	data := []byte("file content for hashing")
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	fp, err := FingerprintFile(path)
	require.NoError(t, err)
	assert.Equal(t, FingerprintFromBytes(data), fp)
}

func TestFingerprintFile_Missing(t *testing.T) {
	_, err := FingerprintFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestFingerprintFromBytes_Empty(t *testing.T) {
	first := FingerprintFromBytes(nil)
	second := FingerprintFromBytes([]byte{})

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("docs/paper.pdf#0")
	id2 := IDFromContent("docs/paper.pdf#0")
	id3 := IDFromContent("docs/paper.pdf#1")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, ChunkID("a.pdf", 3), ChunkID("a.pdf", 3))
	assert.NotEqual(t, ChunkID("a.pdf", 3), ChunkID("a.pdf", 4))
	assert.NotEqual(t, ChunkID("a.pdf", 3), ChunkID("b.pdf", 3))
}

func TestDocStateString(t *testing.T) {
	tests := []struct {
		state DocState
		want  string
	}{
		{StateNew, "new"},
		{StateChanged, "changed"},
		{StateUnchanged, "unchanged"},
		{StateRemoved, "removed"},
		{DocState(0), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeVector_Zero(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)

	assert.Empty(t, NormalizeVector(nil))
}

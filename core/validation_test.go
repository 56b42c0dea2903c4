package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChunk() *Chunk {
	return &Chunk{
		Id:         ChunkID("docs/a.pdf", 0),
		DocPath:    "docs/a.pdf",
		Seq:        0,
		Text:       "chunk text",
		StartToken: 0,
		EndToken:   2,
		TokenCount: 2,
	}
}

func TestValidateChunk(t *testing.T) {
	require.NoError(t, ValidateChunk(validChunk()))
}

func TestValidateChunk_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Chunk)
		want   error
	}{
		{"empty path", func(c *Chunk) { c.DocPath = "" }, ErrEmptyPath},
		{"empty text", func(c *Chunk) { c.Text = "" }, ErrEmptyText},
		{"negative start", func(c *Chunk) { c.StartToken = -1 }, ErrInvalidTokenSpan},
		{"empty span", func(c *Chunk) { c.EndToken = c.StartToken }, ErrInvalidTokenSpan},
		{"wrong count", func(c *Chunk) { c.TokenCount = 5 }, ErrInvalidTokenSpan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := validChunk()
			tt.mutate(chunk)

			err := ValidateChunk(chunk)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidChunk)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateChunk_Nil(t *testing.T) {
	assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
}

func TestValidateDocument(t *testing.T) {
	doc := &Document{
		Path:        "docs/a.pdf",
		Size:        1024,
		Fingerprint: FingerprintFromBytes([]byte("content")),
	}
	require.NoError(t, ValidateDocument(doc))

	assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	assert.ErrorIs(t, ValidateDocument(&Document{Fingerprint: "x"}), ErrEmptyPath)
	assert.ErrorIs(t, ValidateDocument(&Document{Path: "a"}), ErrEmptyFingerprint)
}

func TestValidateChunkParams(t *testing.T) {
	require.NoError(t, ValidateChunkParams(1500, 200))
	require.NoError(t, ValidateChunkParams(10, 0))

	assert.ErrorIs(t, ValidateChunkParams(0, 0), ErrInvalidChunkParams)
	assert.ErrorIs(t, ValidateChunkParams(-5, 0), ErrInvalidChunkParams)
	assert.ErrorIs(t, ValidateChunkParams(10, -1), ErrInvalidChunkParams)
	assert.ErrorIs(t, ValidateChunkParams(10, 10), ErrInvalidChunkParams)
	assert.ErrorIs(t, ValidateChunkParams(10, 20), ErrInvalidChunkParams)
}

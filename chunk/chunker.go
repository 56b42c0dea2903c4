// Package chunk splits extracted document text into overlapping token
// windows, the retrieval unit of the knowledge base.
package chunk

import (
	"errors"
	"strings"

	"github.com/poiesic/knowledge/core"
)

// ErrTokenizerRequired is returned when a chunker is built without a tokenizer.
var ErrTokenizerRequired = errors.New("tokenizer required")

// Chunker cuts text into windows of size tokens. Every window after the
// first starts overlap tokens before the previous window's end, so adjacent
// chunks share context. The final window may be shorter than size but is
// never empty. Identical input and parameters always produce an identical
// chunk sequence.
type Chunker struct {
	tokenizer Tokenizer
	size      int
	overlap   int
}

// NewChunker creates a chunker. Size must be positive and overlap strictly
// smaller than size.
func NewChunker(tokenizer Tokenizer, size, overlap int) (*Chunker, error) {
	if tokenizer == nil {
		return nil, ErrTokenizerRequired
	}
	if err := core.ValidateChunkParams(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{
		tokenizer: tokenizer,
		size:      size,
		overlap:   overlap,
	}, nil
}

// Split chunks the text of one document. Empty text yields an empty sequence.
// Chunk IDs derive from docPath and sequence index, so re-chunking the same
// document produces the same IDs.
func (c *Chunker) Split(docPath, text string) ([]*core.Chunk, error) {
	tokens, err := c.tokenizer.Split(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	var chunks []*core.Chunk

	for start, seq := 0, 0; start < len(tokens); start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}

		overlap := 0
		if seq > 0 {
			overlap = c.overlap
		}

		chunks = append(chunks, &core.Chunk{
			Id:         core.ChunkID(docPath, seq),
			DocPath:    docPath,
			Seq:        seq,
			Text:       strings.Join(tokens[start:end], ""),
			StartToken: start,
			EndToken:   end,
			TokenCount: end - start,
			Overlap:    overlap,
		})

		// A short window means the input is exhausted; a further window
		// would only repeat tokens already covered.
		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// Size returns the target chunk size in tokens.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap between adjacent chunks in tokens.
func (c *Chunker) Overlap() int { return c.overlap }

package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/storage"
)

// ChunkRepository implements storage.VectorRepository for BadgerDB.
// Chunk vectors are scanned brute-force for similarity queries; vectors are
// expected to be unit length so cosine similarity reduces to a dot product.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on the given backend.
func NewChunkRepository(backend *Backend) (storage.VectorRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{backend: backend}, nil
}

// ReplaceDocument atomically replaces all chunks stored for docPath.
// The delete of the prior set and the write of the new set share one badger
// write transaction, so readers see either the old set or the new set.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, docPath string, chunks []*core.Chunk) error {
	if docPath == "" {
		return storage.ErrInvalidQuery
	}

	now := time.Now().UTC()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocumentChunks(tx, docPath); err != nil {
			return err
		}

		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			chunk.InsertedAt = now
			if err := tx.Set(makeChunkKey(docPath, chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: replacing %s: %w", storage.ErrWriteFailed, docPath, err)
	}
	return nil
}

// DeleteDocument removes all chunks stored for docPath.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, docPath string) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocumentChunks(tx, docPath); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: deleting %s: %w", storage.ErrWriteFailed, docPath, err)
	}
	return nil
}

// deleteDocumentChunks removes every chunk key under the document's prefix
// within tx.
func deleteDocumentChunks(tx *badger.Txn, docPath string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkDocPrefix(docPath)
	opts.PrefetchValues = false

	var keys [][]byte
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// GetDocumentChunks returns the chunks stored for docPath in sequence order.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, docPath string) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocPrefix(docPath)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Keys order by BigEndian sequence, so iteration order is chunk order
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// FindSimilar finds chunks similar to the given vector.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.scan(ctx, vector, nil, minSimilarity, limit)
}

// FindWithKeywords finds similar chunks whose text contains every keyword.
func (r *ChunkRepository) FindWithKeywords(ctx context.Context, vector []float32, keywords []string, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.scan(ctx, vector, keywords, minSimilarity, limit)
}

func (r *ChunkRepository) scan(ctx context.Context, vector []float32, keywords []string, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if limit < 1 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			// Chunks without embeddings are never exposed to retrieval
			if len(chunk.Vector) == 0 {
				continue
			}

			if len(keywords) > 0 && !textContainsAll(chunk.Text, keywords) {
				continue
			}

			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Stats reports how many documents and chunks the store holds.
func (r *ChunkRepository) Stats(ctx context.Context) (*core.StoreStats, error) {
	stats := &core.StoreStats{}
	docs := map[string]struct{}{}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stats.Chunks++
			if path, ok := docPathFromChunkKey(iter.Item().Key()); ok {
				docs[path] = struct{}{}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	stats.Documents = len(docs)
	return stats, nil
}

// docPathFromChunkKey parses the document path out of a chunk key of the
// form "chkrec:<pathlen>:<path>:<seq>".
func docPathFromChunkKey(key []byte) (string, bool) {
	s := string(key)
	s, ok := strings.CutPrefix(s, chunkRecordPrefix+":")
	if !ok {
		return "", false
	}
	lenStr, rest, ok := strings.Cut(s, ":")
	if !ok {
		return "", false
	}
	var pathLen int
	if _, err := fmt.Sscanf(lenStr, "%d", &pathLen); err != nil {
		return "", false
	}
	if pathLen < 0 || len(rest) < pathLen {
		return "", false
	}
	return rest[:pathLen], true
}

// textContainsAll reports whether every keyword appears as a word in the
// text, case-insensitively and ignoring surrounding punctuation.
func textContainsAll(text string, keywords []string) bool {
	words := strings.Fields(text)
	wordSet := make(map[string]struct{}, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			wordSet[cleaned] = struct{}{}
		}
	}

	for _, keyword := range keywords {
		if _, ok := wordSet[strings.ToLower(keyword)]; !ok {
			return false
		}
	}
	return true
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Close is a no-op; the shared backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

package storage

import (
	"context"

	"github.com/poiesic/knowledge/core"
)

// FingerprintIndex is the persisted mapping from document path to last-seen
// fingerprint. It is the sole source of truth for incremental-update
// decisions: a document is re-ingested only when its current fingerprint
// differs from the indexed one.
type FingerprintIndex interface {
	// Get retrieves the record for a document path.
	// Returns ErrNotFound if the path has never completed ingestion.
	Get(ctx context.Context, path string) (*core.FingerprintRecord, error)

	// Put stores or replaces the record for a document path. It is called
	// once per document, only after the document's chunks have been
	// committed to the vector repository.
	Put(ctx context.Context, record *core.FingerprintRecord) error

	// Delete removes the record for a document path.
	// Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error

	// All returns every record in the index, ordered by path.
	All(ctx context.Context) ([]*core.FingerprintRecord, error)

	// Close releases resources held by the index.
	Close() error
}

// VectorRepository persists chunk vectors and metadata.
type VectorRepository interface {
	// ReplaceDocument atomically replaces all chunks stored for docPath with
	// the given set. Either every chunk of the new set is committed or the
	// prior set is left untouched; readers never observe a partial set.
	ReplaceDocument(ctx context.Context, docPath string, chunks []*core.Chunk) error

	// DeleteDocument removes all chunks stored for docPath.
	// Deleting an absent document is not an error.
	DeleteDocument(ctx context.Context, docPath string) error

	// GetDocumentChunks returns the chunks stored for docPath in sequence
	// order. Returns an empty slice when none are stored.
	GetDocumentChunks(ctx context.Context, docPath string) ([]*core.Chunk, error)

	// FindSimilar returns chunks whose similarity to the query vector is at
	// least minSimilarity, up to limit results, ordered by similarity
	// (highest first). Chunks without embeddings are never returned.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// FindWithKeywords behaves like FindSimilar but additionally requires
	// every significant keyword to appear in the chunk text, for hybrid
	// retrieval.
	FindWithKeywords(ctx context.Context, vector []float32, keywords []string, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Stats reports how many documents and chunks the store holds.
	Stats(ctx context.Context) (*core.StoreStats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

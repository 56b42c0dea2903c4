// Package search provides retrieval over the ingested knowledge base.
//
// Search embeds the query and ranks stored chunks by similarity (vectors
// are unit-normalized at ingestion time, so similarity is a dot product).
// HybridSearch additionally requires every significant query word to appear
// in the chunk text, which sharpens results for queries naming specific
// terms.
package search

package ai

import "context"

// Embedder generates vector embeddings for text.
// Implementations must return one vector per input text, in input order, and
// must respect the configured batch limit when talking to the provider.
type Embedder interface {
	// EmbedText generates an embedding for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts, preserving order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the embedding model, recorded on each
	// stored chunk.
	Model() string
}

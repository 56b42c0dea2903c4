// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package knowledge

import (
	"context"
	"log/slog"

	"github.com/poiesic/knowledge/ai"
	"github.com/poiesic/knowledge/ai/openai"
	"github.com/poiesic/knowledge/chunk"
	"github.com/poiesic/knowledge/config"
	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/corpus"
	"github.com/poiesic/knowledge/extract"
	"github.com/poiesic/knowledge/ingest"
	"github.com/poiesic/knowledge/search"
	"github.com/poiesic/knowledge/storage"
	"github.com/poiesic/knowledge/storage/badger"
)

// KnowledgeBase bundles the store, the embedder, and the configuration into
// one handle from which ingestion coordinators and searchers are created.
type KnowledgeBase struct {
	config   *config.Config
	backend  *badger.Backend
	index    storage.FingerprintIndex
	vectors  storage.VectorRepository
	embedder ai.Embedder
	chunkTok chunk.Tokenizer
	logger   *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*options)

type options struct {
	embedder  ai.Embedder
	tokenizer chunk.Tokenizer
	inMemory  bool
}

// WithEmbedder overrides the embedder built from the configuration.
// Used by tests and offline tooling.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithTokenizer overrides the tokenizer used by the chunker.
func WithTokenizer(tokenizer chunk.Tokenizer) Option {
	return func(o *options) {
		o.tokenizer = tokenizer
	}
}

// WithInMemoryStore opens the store in memory instead of on disk.
func WithInMemoryStore() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// Open validates the configuration and opens the knowledge base.
func Open(cfg *config.Config, opts ...Option) (*KnowledgeBase, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	storePath := cfg.Store.Path
	if o.inMemory {
		storePath = ""
	}
	backend, err := badger.OpenBackend(storePath, o.inMemory)
	if err != nil {
		return nil, err
	}

	index, err := badger.NewFingerprintIndex(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectors, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := o.embedder
	if embedder == nil {
		aiConfig := ai.NewConfig(
			ai.WithHost(cfg.Embedding.Host),
			ai.WithModel(cfg.Embedding.Model),
			ai.WithAPIKey(cfg.Embedding.APIKey),
			ai.WithBatchSize(cfg.Embedding.BatchSize),
		)
		embedder, err = openai.NewEmbedder(aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &KnowledgeBase{
		config:   cfg,
		backend:  backend,
		index:    index,
		vectors:  vectors,
		embedder: embedder,
		chunkTok: o.tokenizer,
		logger:   slog.Default(),
	}, nil
}

// Close closes the store.
func (kb *KnowledgeBase) Close() error {
	if err := kb.index.Close(); err != nil {
		kb.logger.Error("error closing fingerprint index", "err", err)
	}
	if err := kb.vectors.Close(); err != nil {
		kb.logger.Error("error closing vector repository", "err", err)
	}
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// FingerprintIndex exposes the fingerprint index.
func (kb *KnowledgeBase) FingerprintIndex() storage.FingerprintIndex {
	return kb.index
}

// VectorRepository exposes the chunk store.
func (kb *KnowledgeBase) VectorRepository() storage.VectorRepository {
	return kb.vectors
}

// Stats reports document and chunk counts.
func (kb *KnowledgeBase) Stats(ctx context.Context) (*core.StoreStats, error) {
	return kb.vectors.Stats(ctx)
}

// NewCoordinator builds an ingestion coordinator wired to the configured
// corpus directory, chunking parameters, and retry policy. Options are
// applied after the configuration-derived ones and may override them.
func (kb *KnowledgeBase) NewCoordinator(opts ...ingest.Option) (*ingest.Coordinator, error) {
	loader := corpus.NewLoader(
		kb.config.Corpus.Path,
		kb.config.Corpus.Extensions,
		kb.config.Corpus.MaxFileSizeMB,
		corpus.WithLogger(kb.logger),
	)

	chunker, err := chunk.NewChunker(kb.tokenizer(), kb.config.Chunking.ChunkSize, kb.config.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	coordinatorOpts := append([]ingest.Option{
		ingest.WithConcurrency(kb.config.Ingest.Concurrency),
		ingest.WithRetry(kb.config.Embedding.MaxRetries, kb.config.Embedding.RetryDelay),
		ingest.WithLogger(kb.logger),
	}, opts...)

	return ingest.NewCoordinator(
		loader,
		extract.NewRegistry(extract.WithLogger(kb.logger)),
		chunker,
		kb.embedder,
		kb.index,
		kb.vectors,
		coordinatorOpts...,
	)
}

// NewSearcher builds a searcher over the store.
func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(kb.vectors, kb.embedder, opts...)
}

// tokenizer returns the configured tokenizer, defaulting to the BPE encoding
// of the embedding model. When the encoding tables cannot be loaded (for
// example with no network and a cold cache) the rune tokenizer keeps
// ingestion usable; chunk boundaries shift but every guarantee still holds.
func (kb *KnowledgeBase) tokenizer() chunk.Tokenizer {
	if kb.chunkTok != nil {
		return kb.chunkTok
	}
	tokenizer, err := chunk.NewTiktokenTokenizer(kb.config.Embedding.Model)
	if err != nil {
		kb.logger.Warn("falling back to rune tokenizer", "model", kb.config.Embedding.Model, "err", err)
		return chunk.RuneTokenizer{}
	}
	return tokenizer
}

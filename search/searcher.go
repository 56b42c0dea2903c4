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


package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/knowledge/ai"
	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/storage"
)

// defaultMinSimilarity drops matches too weak to be useful context.
const defaultMinSimilarity = 0.60

// Searcher retrieves chunks relevant to a text query.
type Searcher struct {
	vectors       storage.VectorRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity overrides the similarity threshold below which matches
// are discarded. Default is 0.60.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:       vectors,
		embedder:      embedder,
		minSimilarity: defaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits chunks ranked by similarity to the query.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.vectors.FindSimilar(ctx, vector, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	s.logger.Debug("search completed", "query", query, "hits", len(results))
	return results, nil
}

// HybridSearch behaves like Search but additionally requires every
// significant query word to appear in the chunk text. A query made up
// entirely of stop words degrades to plain similarity search.
func (s *Searcher) HybridSearch(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	keywords := tokenizeAndFilter(query)
	if len(keywords) == 0 {
		return s.Search(ctx, query, maxHits)
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.vectors.FindWithKeywords(ctx, vector, keywords, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying with keyword filter", "err", err)
		return nil, err
	}

	s.logger.Debug("hybrid search completed", "query", query, "keywords", len(keywords), "hits", len(results))
	return results, nil
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	return core.NormalizeVector(vector), nil
}

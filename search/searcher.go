// Copyright 2025 Poiesic Systems
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
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity a page needs to be a hit.
	DefaultMinSimilarity float32 = 0.60

	verbatimBoost float32 = 0.3
)

// Searcher finds pages by semantic similarity with a verbatim match boost.
type Searcher struct {
	repository    storage.DocumentRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

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

// WithMinSimilarity overrides DefaultMinSimilarity.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = minSimilarity
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.DocumentRepository, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindPages searches for pages relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindPages(ctx context.Context, query string, maxHits int) ([]*core.PageMatch, error) {
	return s.FindPagesWithMonitor(ctx, query, maxHits, nil)
}

// FindPagesWithMonitor searches for pages relevant to the query, reporting each
// stage to monitor.
func (s *Searcher) FindPagesWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.PageMatch, error) {
	if maxHits <= 0 {
		return nil, ErrInvalidMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if len(embedding) == 0 {
		s.logger.Warn("embedder returned no vector for query", "query", query)
		monitor.Finish(nil)
		return []*core.PageMatch{}, nil
	}

	matches, err := s.repository.FindSimilarPages(ctx, embedding, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar pages", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	for _, match := range matches {
		if containsAllQueryWords(pageText(match.Page), query) {
			match.Score += verbatimBoost
			monitor.VerbatimHit(match)
		}
	}

	slices.SortStableFunc(matches, func(a, b *core.PageMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})
	monitor.Finish(matches)

	s.logger.Debug("search finished", "query", query, "hits", len(matches))
	return matches, nil
}

func pageText(p *core.Page) string {
	return p.Content() + "\n" + p.Overview
}

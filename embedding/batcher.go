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

package embedding

import (
	"context"
	"log/slog"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
)

// DefaultBatchSize is the maximum number of texts sent in one provider call.
const DefaultBatchSize = 50

// Batcher fills page embeddings using an ai.Embedder.
type Batcher struct {
	embedder  ai.Embedder
	batchSize int
	logger    *slog.Logger
}

// Option configures a Batcher.
type Option func(*Batcher) error

// WithBatchSize sets the number of texts per provider call.
func WithBatchSize(size int) Option {
	return func(b *Batcher) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		b.batchSize = size
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// Stats describes the outcome of an EmbedPages call.
type Stats struct {
	Candidates int // pages sent to the provider
	Embedded   int // pages that received a real vector
	Failed     int // pages that received the error sentinel
	Batches    int // provider calls made
}

// NewBatcher creates a Batcher around embedder.
func NewBatcher(embedder ai.Embedder, opts ...Option) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	b := &Batcher{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "embedding-batcher")
	return b, nil
}

// BatchSize returns the configured batch size.
func (b *Batcher) BatchSize() int {
	return b.batchSize
}

// EmbedPages embeds every page that lacks a valid embedding and has a non-blank overview.
//
// Batches are sent one at a time in candidate order. A failed provider call is logged
// and its pages get the error sentinel; the only error returned is ctx.Err().
func (b *Batcher) EmbedPages(ctx context.Context, pages []*core.Page) (Stats, error) {
	var stats Stats

	candidates := make([]*core.Page, 0, len(pages))
	for _, p := range pages {
		if p == nil || p.HasValidEmbedding() || !p.HasOverview() {
			continue
		}
		candidates = append(candidates, p)
	}
	stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		return stats, nil
	}

	b.logger.Debug("embedding pages", "candidates", len(candidates), "batch_size", b.batchSize)

	results := make([][]float32, 0, len(candidates))
	for start := 0; start < len(candidates); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := min(start+b.batchSize, len(candidates))
		texts := make([]string, 0, end-start)
		for _, p := range candidates[start:end] {
			texts = append(texts, p.Overview)
		}

		stats.Batches++
		vectors, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			b.logger.Error("error generating embeddings", "batch", stats.Batches, "size", len(texts), "err", err)
			// Keep later batches aligned with their pages.
			results = append(results, make([][]float32, len(texts))...)
			continue
		}
		if len(vectors) != len(texts) {
			b.logger.Warn("embedding result count mismatch",
				"batch", stats.Batches,
				"expected", len(texts),
				"received", len(vectors))
		}
		results = append(results, vectors...)
	}

	for i, p := range candidates {
		var vector []float32
		if i < len(results) {
			vector = results[i]
		}
		if b.apply(p, vector, true) {
			stats.Embedded++
		} else {
			stats.Failed++
		}
	}

	b.logger.Info("embedded pages",
		"candidates", stats.Candidates,
		"embedded", stats.Embedded,
		"failed", stats.Failed)
	return stats, nil
}

// EmbedPage embeds a single page unconditionally, using fallback as the text when
// the page has no overview. A page without an overview is still recorded with the
// error sentinel. The only error returned is ctx.Err().
func (b *Batcher) EmbedPage(ctx context.Context, page *core.Page, fallback string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := page.Overview
	if !page.HasOverview() {
		text = fallback
	}

	vector, err := b.embedder.EmbedText(ctx, text)
	if err != nil {
		b.logger.Error("error generating embedding", "page", page.Number(), "err", err)
		vector = nil
	}
	b.apply(page, vector, page.HasOverview())
	return nil
}

// apply records vector on page, or the error sentinel when vector is empty or
// the page had no overview. An existing EmbeddingVector keeps its identity.
func (b *Batcher) apply(page *core.Page, vector []float32, hasOverview bool) bool {
	ok := len(vector) > 0 && hasOverview

	model := core.ErrorModel
	if ok {
		model = b.embedder.Model()
	} else {
		vector = []float32{}
	}

	if page.Embedding == nil {
		page.Embedding = core.NewEmbeddingVector(model, vector)
	} else {
		page.Embedding.Model = model
		page.Embedding.Vector = vector
	}
	return ok
}

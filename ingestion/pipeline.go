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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/embedding"
	"github.com/poiesic/docflow/extract"
)

// Pipeline turns documents into pages with text, overviews and embeddings.
// A Pipeline processes one call at a time; documents, pages and batches are
// handled sequentially.
type Pipeline struct {
	extractor extract.Extractor
	analyzer  ai.Analyzer
	embedder  ai.Embedder
	batcher   *embedding.Batcher
	ocr       OCR
	batchSize int
	handlers  map[core.MediaType]handler
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithOCR enables text recognition for image documents.
func WithOCR(ocr OCR) Option {
	return func(p *Pipeline) error {
		p.ocr = ocr
		return nil
	}
}

// WithBatchSize sets the number of page overviews sent per embedding call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return embedding.ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// NewPipeline creates a Pipeline using extractor for PDF and workbook content and
// the provider's embedder and analyzer.
func NewPipeline(extractor extract.Extractor, provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		extractor: extractor,
		analyzer:  provider.Analyzer(),
		embedder:  provider.Embedder(),
		batchSize: embedding.DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	// Created after options are applied so it gets the final config
	batcher, err := embedding.NewBatcher(p.embedder,
		embedding.WithBatchSize(p.batchSize),
		embedding.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	p.batcher = batcher
	p.registerHandlers()

	return p, nil
}

// ProcessOptions controls a ProcessDocuments call.
type ProcessOptions struct {
	// GenerateOverviews requests a page overview for pages that have none.
	GenerateOverviews bool

	// DetectSectionTitles requests section title detection for PDF and OCR documents.
	DetectSectionTitles bool

	// OnProcessed is called with the document name after each document.
	// Errors are logged and do not stop processing.
	OnProcessed func(ctx context.Context, name string) error
}

// DefaultProcessOptions enables overviews and section titles without a callback.
func DefaultProcessOptions() *ProcessOptions {
	return &ProcessOptions{
		GenerateOverviews:   true,
		DetectSectionTitles: true,
	}
}

// SupportedMediaTypes returns the media types with a registered handler.
func (p *Pipeline) SupportedMediaTypes() []core.MediaType {
	types := make([]core.MediaType, 0, len(p.handlers))
	for mt := range p.handlers {
		types = append(types, mt)
	}
	slices.Sort(types)
	return types
}

// ProcessDocuments processes documents in order. nil documents and documents without
// a file are logged and skipped. An unknown media type, a file without content or an
// extraction failure stops the call and is returned; so is ctx cancellation, checked
// before each document and each embedding batch. nil opts means DefaultProcessOptions.
func (p *Pipeline) ProcessDocuments(ctx context.Context, documents []*core.Document, opts *ProcessOptions) error {
	if opts == nil {
		opts = DefaultProcessOptions()
	}

	p.logger.Info("processing documents", "documents", len(documents))

	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}

		if doc == nil {
			p.logger.Error("document is nil", "index", i)
			continue
		}

		p.logger.Info("processing document", "document", doc.Name, "media_type", doc.MediaType)
		if err := p.processDocument(ctx, doc, opts); err != nil {
			return err
		}

		if opts.OnProcessed != nil {
			if err := opts.OnProcessed(ctx, doc.Name); err != nil {
				p.logger.Error("document callback failed", "document", doc.Name, "err", err)
			}
		}

		p.logger.Info("document processed", "document", doc.Name, "pages", len(doc.Pages))
	}

	p.logger.Info("documents processed")
	return nil
}

func (p *Pipeline) processDocument(ctx context.Context, doc *core.Document, opts *ProcessOptions) error {
	h, ok := p.handlers[doc.MediaType]
	if !ok {
		return fmt.Errorf("%w: %s (document %q)", ErrUnknownMediaType, doc.MediaType, doc.Name)
	}
	return h(ctx, doc, opts)
}

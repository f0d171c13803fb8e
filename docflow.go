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

package docflow

import (
	"io"
	"log/slog"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/ai/openai"
	"github.com/poiesic/docflow/extract"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/reembed"
	"github.com/poiesic/docflow/search"
	"github.com/poiesic/docflow/storage"
	"github.com/poiesic/docflow/storage/badger"
	"github.com/poiesic/docflow/workflow"
)

// Engine wires document storage and an AI provider to the processing,
// loading, search and reembedding components.
type Engine struct {
	backend        *badger.Backend
	documentRepo   storage.DocumentRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.Provider
	logger         *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of creating an OpenAI-compatible one.
// The engine closes it on Close.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory. The path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the database at filePath and creates the AI provider.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	checkpointRepo := badger.NewCheckpointRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			documentRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Engine{
		backend:        backend,
		documentRepo:   documentRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		logger:         options.logger,
	}, nil
}

// Close releases the provider, the repositories and the database.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.documentRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documentRepo
}

func (e *Engine) CheckpointRepository() storage.CheckpointRepository {
	return e.checkpointRepo
}

func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// NewPipeline creates a document processing pipeline using the built-in PDF and
// workbook extractors.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	extractor, err := extract.New(extract.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	opts = append([]ingestion.Option{ingestion.WithLogger(e.logger)}, opts...)
	return ingestion.NewPipeline(extractor, e.provider, opts...)
}

func (e *Engine) NewLoader(opts ...workflow.Option) (*workflow.Loader, error) {
	opts = append([]workflow.Option{workflow.WithLogger(e.logger)}, opts...)
	return workflow.NewLoader(e.provider.Analyzer(), opts...)
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger)}, opts...)
	return search.NewSearcher(e.documentRepo, e.provider, opts...)
}

// NewReembedder creates a reembedder over the stored documents that resumes
// from the engine's checkpoints. nil config means reembed.DefaultConfig.
func (e *Engine) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.documentRepo, e.checkpointRepo, e.provider.Embedder(), config, progress)
}

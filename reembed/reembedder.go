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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/embedding"
	"github.com/poiesic/docflow/storage"
)

// CheckpointName identifies reembedding progress in the checkpoint repository.
const CheckpointName = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents loaded and checkpointed together
	BatchSize int

	// EmbedBatchSize is the number of page overviews sent per provider call
	EmbedBatchSize int

	// PoolSize is the number of documents embedded concurrently
	PoolSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each provider call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Force re-embeds pages that already have a valid embedding and ignores
	// any saved checkpoint.
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		EmbedBatchSize: embedding.DefaultBatchSize,
		PoolSize:       4,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all stored documents.
type Reembedder struct {
	repo        storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	iterator    *DocumentIterator
	logger      *slog.Logger
}

// NewReembedder creates a new reembedder.
// checkpoints may be nil, in which case every run starts from the beginning.
// progress receives human-readable progress output (typically os.Stderr).
func NewReembedder(repo storage.DocumentRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:        repo,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		iterator:    NewDocumentIterator(repo, config.BatchSize),
		logger:      slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds the pages of every stored document that lack a valid
// embedding, or all pages with an overview when Force is set. A checkpoint is
// saved after each batch and removed once the run completes.
func (r *Reembedder) Run(ctx context.Context) error {
	after, err := r.resumePoint(ctx)
	if err != nil {
		return err
	}

	ids, err := r.iterator.IDs(ctx, after)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintf(r.progress, "No documents to reembed\n")
		return r.clearCheckpoint(ctx)
	}

	batcher, err := embedding.NewBatcher(
		newRetryingEmbedder(r.embedder, r.config.MaxRetries, r.config.RetryDelay),
		embedding.WithBatchSize(max(r.config.EmbedBatchSize, 1)),
		embedding.WithLogger(r.logger),
	)
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(max(r.config.PoolSize, 1))
	if err != nil {
		return err
	}
	defer pool.Release()

	processor := NewBatchProcessor(r.repo, batcher, pool, r.config.Force, r.logger)

	fmt.Fprintf(r.progress, "Starting reembedding of %d documents with %s (batch size: %d, workers: %d)\n",
		len(ids), r.embedder.Model(), r.iterator.batchSize, pool.Cap())

	tracker := NewProgressTracker(r.progress, "documents", len(ids), r.config.ReportInterval)
	tracker.Start()

	var total BatchStats
	err = r.iterator.ForEach(ctx, ids, func(batch []string) error {
		stats, err := processor.Process(ctx, batch, func() { tracker.Increment(1) })
		total.add(stats)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return r.saveCheckpoint(ctx, batch[len(batch)-1])
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. %d documents, %d pages embedded, %d failed in %v\n",
		total.Documents, total.Embedded, total.Failed, elapsed.Round(time.Millisecond))
	r.logger.Info("reembedding complete",
		"documents", total.Documents,
		"pages", total.Pages,
		"embedded", total.Embedded,
		"failed", total.Failed)

	return r.clearCheckpoint(ctx)
}

func (r *Reembedder) resumePoint(ctx context.Context) (string, error) {
	if r.checkpoints == nil {
		return "", nil
	}
	if r.config.Force {
		return "", r.clearCheckpoint(ctx)
	}

	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName)
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return "", nil
	}
	r.logger.Info("resuming from checkpoint", "after", checkpoint.LastDocumentID, "saved_at", checkpoint.UpdatedAt)
	fmt.Fprintf(r.progress, "Resuming after document %s\n", checkpoint.LastDocumentID)
	return checkpoint.LastDocumentID, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, lastID string) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType:  CheckpointName,
		LastDocumentID: lastID,
	})
}

func (r *Reembedder) clearCheckpoint(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.DeleteCheckpoint(ctx, CheckpointName)
}

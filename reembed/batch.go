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
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/embedding"
	"github.com/poiesic/docflow/storage"
)

// BatchStats summarizes one processed batch.
type BatchStats struct {
	Documents int
	Pages     int // pages sent to the embedder
	Embedded  int
	Failed    int
}

func (s *BatchStats) add(o BatchStats) {
	s.Documents += o.Documents
	s.Pages += o.Pages
	s.Embedded += o.Embedded
	s.Failed += o.Failed
}

// BatchProcessor re-embeds the pages of a batch of documents.
type BatchProcessor struct {
	repo    storage.DocumentRepository
	batcher *embedding.Batcher
	pool    *ants.Pool
	force   bool
	logger  *slog.Logger
}

// NewBatchProcessor creates a batch processor that runs documents on pool.
// With force, pages that already have a valid embedding are embedded again.
func NewBatchProcessor(repo storage.DocumentRepository, batcher *embedding.Batcher, pool *ants.Pool, force bool, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:    repo,
		batcher: batcher,
		pool:    pool,
		force:   force,
		logger:  logger,
	}
}

// Process loads the documents, embeds them concurrently and saves those that
// changed. onDocument is called once per loaded document after it was embedded.
// Errors of individual documents are joined; ctx cancellation is returned as is.
func (bp *BatchProcessor) Process(ctx context.Context, ids []string, onDocument func()) (BatchStats, error) {
	var stats BatchStats
	if len(ids) == 0 {
		return stats, nil
	}

	docs, err := bp.repo.GetDocuments(ctx, ids...)
	if err != nil {
		return stats, fmt.Errorf("failed to load documents: %w", err)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	for _, doc := range docs {
		wg.Add(1)
		err := bp.pool.Submit(func() {
			defer wg.Done()
			docStats, err := bp.processDocument(ctx, doc)

			mu.Lock()
			stats.add(docStats)
			if err != nil {
				errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
			}
			mu.Unlock()

			if onDocument != nil {
				onDocument()
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
			mu.Unlock()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, errors.Join(errs...)
}

func (bp *BatchProcessor) processDocument(ctx context.Context, doc *core.Document) (BatchStats, error) {
	stats := BatchStats{Documents: 1}

	if bp.force {
		for _, page := range doc.Pages {
			if page.HasOverview() {
				page.Embedding = nil
			}
		}
	}

	result, err := bp.batcher.EmbedPages(ctx, doc.Pages)
	if err != nil {
		return stats, err
	}
	stats.Pages = result.Candidates
	stats.Embedded = result.Embedded
	stats.Failed = result.Failed

	if result.Candidates == 0 {
		bp.logger.Debug("document has nothing to embed", "document", doc.Name)
		return stats, nil
	}
	if err := bp.repo.SaveDocuments(ctx, doc); err != nil {
		return stats, fmt.Errorf("failed to save: %w", err)
	}
	return stats, nil
}

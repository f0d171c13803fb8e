package reembed

import (
	"context"

	"github.com/poiesic/docflow/storage"
)

const (
	// DefaultBatchSize is the default number of documents per batch
	DefaultBatchSize = 20
)

// DocumentIterator walks stored document IDs in batches.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// A non-positive batchSize selects DefaultBatchSize.
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// IDs returns the IDs to process, skipping everything up to and including
// after. An empty after, or one no longer stored, starts from the beginning.
func (it *DocumentIterator) IDs(ctx context.Context, after string) ([]string, error) {
	ids, err := it.repo.ListDocumentIDs(ctx)
	if err != nil {
		return nil, err
	}
	if after == "" {
		return ids, nil
	}
	for i, id := range ids {
		if id == after {
			return ids[i+1:], nil
		}
	}
	return ids, nil
}

// ForEach calls fn with consecutive batches of ids.
// Iteration stops on the first error from fn. Context cancellation is checked
// before each batch.
func (it *DocumentIterator) ForEach(ctx context.Context, ids []string, fn func(batch []string) error) error {
	for start := 0; start < len(ids); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+it.batchSize, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

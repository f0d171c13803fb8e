package storage

import (
	"context"

	"github.com/poiesic/docflow/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository persists processed documents.
type DocumentRepository interface {
	Repository

	// SaveDocuments inserts or replaces documents together with their file and
	// pages. Pages no longer present on a document are removed.
	SaveDocuments(ctx context.Context, docs ...*core.Document) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist.
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// ListDocumentIDs returns the IDs of all stored documents in key order.
	ListDocumentIDs(ctx context.Context) ([]string, error)

	// DeleteDocuments removes documents, their pages and indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...string) error

	// FindDocumentByChecksum returns the document created from a file with the
	// given content checksum. Returns ErrNotFound if there is none.
	FindDocumentByChecksum(ctx context.Context, checksum string) (*core.Document, error)

	// FindSimilarPages returns pages with a valid embedding whose cosine
	// similarity to vector is at least minSimilarity, best first, up to limit.
	FindSimilarPages(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.PageMatch, error)
}

// CheckpointRepository persists processor progress.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint and sets UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint for a processor type, or nil when
	// none was saved.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}

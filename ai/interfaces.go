package ai

import (
	"context"

	"github.com/poiesic/docflow/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice is ordered like the input. A nil entry, or a response
	// shorter than the input, means no vector was produced for those texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name recorded on vectors produced by this embedder.
	Model() string
}

// Analyzer wraps the generative capabilities used while processing documents
// and loading workflow context.
// Implementations must be thread-safe for concurrent use.
type Analyzer interface {
	// GenerateOverview returns a natural-language summary of a page.
	// Pages holding only an image are summarized from the image content.
	GenerateOverview(ctx context.Context, page *core.Page) (string, error)

	// GenerateTopicsSummary returns a summary of the topics covered across pages,
	// which may belong to several documents.
	GenerateTopicsSummary(ctx context.Context, pages []*core.Page) (string, error)

	// GenerateTableOfContents builds a table of contents for the document following
	// the model descriptor and stores it on the document.
	GenerateTableOfContents(ctx context.Context, doc *core.Document, model string) error

	// DetectSectionTitles fills the SectionTitles of the document's pages.
	DetectSectionTitles(ctx context.Context, doc *core.Document) error
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Analyzer returns the generative analysis service.
	Analyzer() Analyzer

	// Close releases resources held by the provider and its services.
	Close() error
}

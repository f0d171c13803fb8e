package ingestion

import "errors"

var (
	// ErrExtractorRequired is returned when no page extractor is provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrUnknownMediaType is returned when no handler exists for a document's media type.
	// It aborts the whole ProcessDocuments call.
	ErrUnknownMediaType = errors.New("unknown media type")

	// ErrMissingFileBytes is returned when a handler needs the file content and it is empty.
	ErrMissingFileBytes = errors.New("document file has no content")
)

package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidBatchSize is returned for batch sizes below 1.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

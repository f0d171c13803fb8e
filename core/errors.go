package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidWorkflow indicates a Workflow failed validation.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrUnsupportedMediaType indicates a media type outside the supported set.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrDuplicatePageNumber indicates two pages of a document share a number.
	ErrDuplicatePageNumber = errors.New("duplicate page number")

	// ErrInvalidPageNumber indicates a page number below 1.
	ErrInvalidPageNumber = errors.New("page number must be positive")

	// ErrBlockNotFound indicates no block carries the requested order.
	ErrBlockNotFound = errors.New("block not found")

	// ErrDuplicateBlockOrder indicates two blocks of a workflow share an order.
	ErrDuplicateBlockOrder = errors.New("duplicate block order")

	// ErrWorkflowTooDeep indicates an attempt to nest workflows more than one level.
	ErrWorkflowTooDeep = errors.New("workflow nesting limited to one level")

	// ErrInvalidBlockType indicates an unknown BlockType value.
	ErrInvalidBlockType = errors.New("invalid block type")

	// ErrInvalidRagType indicates an unknown RagType value.
	ErrInvalidRagType = errors.New("invalid rag type")
)

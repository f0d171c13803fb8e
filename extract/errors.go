package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for media types this package cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptDocument is returned when the bytes cannot be parsed.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrEmptyInput is returned when no bytes are given.
	ErrEmptyInput = errors.New("empty input")
)

package core

import "time"

// Checkpoint records how far a long-running processor got, so a later run can
// resume after the last completed document.
type Checkpoint struct {
	ProcessorType  string
	LastDocumentID string
	UpdatedAt      time.Time
}

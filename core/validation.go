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

package core

import (
	"fmt"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - MediaType must be supported
//   - Page numbers must be positive, unique and ascending
//
// NOT validated (populated by the pipeline):
//   - Page text, overview and embedding
//   - File (may be absent for documents built in memory)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if !knownMediaTypes[doc.MediaType] {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrUnsupportedMediaType, doc.MediaType)
	}

	prev := 0
	for _, p := range doc.Pages {
		if p.number < 1 {
			return fmt.Errorf("%w: %w: %d", ErrInvalidDocument, ErrInvalidPageNumber, p.number)
		}
		if p.number <= prev {
			return fmt.Errorf("%w: %w: %d", ErrInvalidDocument, ErrDuplicatePageNumber, p.number)
		}
		prev = p.number
	}

	return nil
}

// ValidateWorkflow validates a workflow tree.
//
// Validation rules:
//   - Nesting depth is at most one level
//   - Block orders are unique within a workflow
//   - Block and RAG types are known values
//   - RAG settings point back at the block holding them
func ValidateWorkflow(wf *Workflow) error {
	if wf == nil {
		return fmt.Errorf("%w: workflow is nil", ErrInvalidWorkflow)
	}
	return validateWorkflow(wf, 0)
}

func validateWorkflow(wf *Workflow, depth int) error {
	if depth > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidWorkflow, ErrWorkflowTooDeep)
	}

	orders := make(map[int]bool, len(wf.Blocks))
	for _, b := range wf.Blocks {
		if orders[b.Order] {
			return fmt.Errorf("%w: %w: %d in %q", ErrInvalidWorkflow, ErrDuplicateBlockOrder, b.Order, wf.Name)
		}
		orders[b.Order] = true

		if err := ValidateBlockType(b.Type); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
		}
		for _, rs := range b.RagSettings {
			if err := ValidateRagType(rs.Type); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
			}
			if rs.Block != b {
				return fmt.Errorf("%w: rag settings %s are not owned by block %q", ErrInvalidWorkflow, rs.ID, b.Name)
			}
		}
	}

	for _, child := range wf.Children {
		if err := validateWorkflow(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBlockType validates that a BlockType has a known value.
func ValidateBlockType(bt BlockType) error {
	switch bt {
	case BlockTypeAiQuery, BlockTypeSimpleRag, BlockTypeMerge:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidBlockType, bt)
}

// ValidateRagType validates that a RagType has a known value.
func ValidateRagType(rt RagType) error {
	switch rt {
	case RagTypeWholeDocument, RagTypeUseTopics, RagTypeUseAutoDetectedTableOfContents:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRagType, rt)
}

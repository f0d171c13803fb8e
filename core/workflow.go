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
	"slices"
)

// BlockType identifies what a block does with its context.
type BlockType string

const (
	BlockTypeAiQuery   BlockType = "AiQuery"
	BlockTypeSimpleRag BlockType = "SimpleRag"
	BlockTypeMerge     BlockType = "Merge"
)

// RagType selects how retrieval context is assembled for a block.
type RagType string

const (
	RagTypeWholeDocument                  RagType = "WholeDocument"
	RagTypeUseTopics                      RagType = "UseTopics"
	RagTypeUseAutoDetectedTableOfContents RagType = "UseAutoDetectedTableOfContents"
)

// Reserved document classes understood by Block.AcceptsClass.
const (
	DocumentClassAny  = "Any"
	DocumentClassNone = "None"
)

// Workflow is a node of the processing hierarchy. Only one level of nesting is
// supported: a root workflow with child workflows.
type Workflow struct {
	ID       string
	Name     string
	Order    int
	Children []*Workflow
	Blocks   []*Block

	// AllPages aggregates the pages of every document loaded into this workflow,
	// added once per document.
	AllPages []*Page

	// AllPagesTopics caches the topic summary generated from AllPages. It may be
	// empty after a successful generation; see HasTopics.
	AllPagesTopics string

	parent          *Workflow
	topicsGenerated bool
}

// NewWorkflow creates an empty root workflow.
func NewWorkflow(name string) *Workflow {
	return &Workflow{
		ID:   NewID(),
		Name: name,
	}
}

// Parent returns the parent workflow or nil for a root workflow.
func (w *Workflow) Parent() *Workflow {
	return w.parent
}

// AddChild appends a child workflow. Returns ErrWorkflowTooDeep when w is itself a child
// or when child already has children.
func (w *Workflow) AddChild(child *Workflow) error {
	if w.parent != nil || len(child.Children) > 0 {
		return fmt.Errorf("%w: cannot nest %q under %q", ErrWorkflowTooDeep, child.Name, w.Name)
	}
	child.parent = w
	w.Children = append(w.Children, child)
	return nil
}

// NewChild creates a child workflow with the given order and appends it.
func (w *Workflow) NewChild(name string, order int) (*Workflow, error) {
	child := NewWorkflow(name)
	child.Order = order
	if err := w.AddChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddBlock creates a block owned by this workflow.
func (w *Workflow) AddBlock(name string, order int, blockType BlockType) *Block {
	block := &Block{
		ID:       NewID(),
		Name:     name,
		Order:    order,
		Type:     blockType,
		workflow: w,
	}
	w.Blocks = append(w.Blocks, block)
	return block
}

// Block returns the block with the given Order.
func (w *Workflow) Block(order int) (*Block, error) {
	for _, b := range w.Blocks {
		if b.Order == order {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: order %d in workflow %q", ErrBlockNotFound, order, w.Name)
}

// TopLevel returns the root of the hierarchy containing w.
func (w *Workflow) TopLevel() *Workflow {
	top := w
	for top.parent != nil {
		top = top.parent
	}
	return top
}

// AllBlocks returns the blocks of the top-level workflow followed by the blocks of
// each of its children.
func (w *Workflow) AllBlocks() []*Block {
	top := w.TopLevel()
	blocks := slices.Clone(top.Blocks)
	for _, child := range top.Children {
		blocks = append(blocks, child.Blocks...)
	}
	return blocks
}

// UsesRagType reports whether any block in the subtree has settings of the given type.
func (w *Workflow) UsesRagType(ragType RagType) bool {
	for _, b := range w.Blocks {
		if b.HasRagType(ragType) {
			return true
		}
	}
	for _, child := range w.Children {
		if child.UsesRagType(ragType) {
			return true
		}
	}
	return false
}

// SetTopics stores the topic summary and marks it as generated.
func (w *Workflow) SetTopics(summary string) {
	w.AllPagesTopics = summary
	w.topicsGenerated = true
}

// HasTopics reports whether a topic summary was generated, even an empty one.
func (w *Workflow) HasTopics() bool {
	return w.topicsGenerated
}

// HasPagesOf reports whether pages of the given document were already aggregated.
func (w *Workflow) HasPagesOf(documentID string) bool {
	return slices.ContainsFunc(w.AllPages, func(p *Page) bool {
		return p.DocumentID == documentID
	})
}

// Block is a step of a workflow that may consume documents.
type Block struct {
	ID                       string
	Name                     string
	Order                    int
	Type                     BlockType
	SupportedDocumentClasses []string
	RagSettings              []*RagSettings

	// Documents holds the documents attached by the last context load.
	Documents []*Document

	workflow *Workflow
}

// Workflow returns the owning workflow.
func (b *Block) Workflow() *Workflow {
	return b.workflow
}

// AddRagSettings creates RAG settings owned by this block.
func (b *Block) AddRagSettings(ragType RagType, tocModel string) *RagSettings {
	rs := &RagSettings{
		ID:                   NewID(),
		Type:                 ragType,
		TableOfContentsModel: tocModel,
		Block:                b,
	}
	b.RagSettings = append(b.RagSettings, rs)
	return rs
}

// ShouldUseDocuments reports whether blocks of this type consume documents.
func (b *Block) ShouldUseDocuments() bool {
	return b.Type == BlockTypeAiQuery || b.Type == BlockTypeSimpleRag
}

// AcceptsClass applies the block's eligibility rule: "None" rejects everything,
// an empty list or "Any" accepts everything, otherwise the class must be listed.
func (b *Block) AcceptsClass(class string) bool {
	if slices.Contains(b.SupportedDocumentClasses, DocumentClassNone) {
		return false
	}
	return len(b.SupportedDocumentClasses) == 0 ||
		slices.Contains(b.SupportedDocumentClasses, DocumentClassAny) ||
		slices.Contains(b.SupportedDocumentClasses, class)
}

// HasRagType reports whether the block has settings of the given type.
func (b *Block) HasRagType(ragType RagType) bool {
	return slices.ContainsFunc(b.RagSettings, func(rs *RagSettings) bool {
		return rs.Type == ragType
	})
}

// HasDocument reports whether a document with the given ID is attached.
func (b *Block) HasDocument(documentID string) bool {
	return slices.ContainsFunc(b.Documents, func(d *Document) bool {
		return d.ID == documentID
	})
}

// RagSettings configures retrieval for a block.
type RagSettings struct {
	ID   string
	Type RagType

	// TableOfContentsModel is the descriptor handed to the table of contents
	// generator. Only meaningful for RagTypeUseAutoDetectedTableOfContents.
	TableOfContentsModel string

	// Block is the non-owning reference to the owner.
	Block *Block
}

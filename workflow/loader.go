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

package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
)

// Loader attaches processed documents to workflow blocks.
// A Loader handles one call at a time; nothing in it runs concurrently.
type Loader struct {
	analyzer ai.Analyzer
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a Loader that uses analyzer for topics and tables of contents.
func NewLoader(analyzer ai.Analyzer, opts ...Option) (*Loader, error) {
	if analyzer == nil {
		return nil, ErrAnalyzerRequired
	}

	l := &Loader{
		analyzer: analyzer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "context-loader")
	return l, nil
}

// LoadOptions controls a LoadContext call.
type LoadOptions struct {
	// BlockOrder restricts attachment to the block with this Order in every
	// visited workflow. A workflow without such a block fails the call.
	// nil considers every block.
	BlockOrder *int

	// OnProcessed is called with the document name after each generated table
	// of contents. It is never called while attaching documents.
	OnProcessed func(ctx context.Context, name string) error
}

// BlockOrder returns a pointer to order for use in LoadOptions.
func BlockOrder(order int) *int {
	return &order
}

// LoadContext attaches documents to the blocks of wf.
//
// Every block of the hierarchy loses its previous documents first. Documents are
// handled in input order; missing documents and ineligible blocks are logged and
// skipped. Errors are returned for a missing block order, RAG settings without an
// owning block, and ctx cancellation.
func (l *Loader) LoadContext(ctx context.Context, infos []*core.DocumentInfo, wf *core.Workflow, opts *LoadOptions) error {
	if wf == nil {
		return ErrWorkflowRequired
	}
	if err := checkDepth(wf); err != nil {
		return err
	}
	if opts == nil {
		opts = &LoadOptions{}
	}

	l.logger.Info("loading context to workflow", "workflow", wf.Name, "documents", len(infos))

	for _, block := range wf.AllBlocks() {
		block.Documents = nil
	}

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if info == nil || info.Document == nil {
			l.logger.Error("document is nil", "document_id", documentID(info))
			continue
		}

		l.logger.Info("loading document to workflow", "document", info.Document.Name)
		l.appendPages(wf, info.Document)
		if err := l.attach(wf, opts.BlockOrder, info); err != nil {
			return err
		}
		l.logger.Info("document loaded", "document", info.Document.Name)
	}

	if wf.UsesRagType(core.RagTypeUseTopics) {
		l.generateTopics(ctx, wf)
	}

	if wf.UsesRagType(core.RagTypeUseAutoDetectedTableOfContents) {
		l.logger.Info("workflow uses auto-detected table of contents", "workflow", wf.Name)
		return l.generateTablesOfContents(ctx, infos, wf, opts.OnProcessed)
	}
	return nil
}

// checkDepth rejects hierarchies deeper than a root with children. Children
// appended to the exported slice directly bypass AddChild, so the block reset
// would otherwise miss their blocks.
func checkDepth(wf *core.Workflow) error {
	top := wf.TopLevel()
	if top != wf && len(wf.Children) > 0 {
		return fmt.Errorf("%w: %q is a child with children", core.ErrWorkflowTooDeep, wf.Name)
	}
	for _, child := range top.Children {
		if len(child.Children) > 0 {
			return fmt.Errorf("%w: %q has children", core.ErrWorkflowTooDeep, child.Name)
		}
	}
	return nil
}

// appendPages adds the document's pages to the workflow unless pages of the
// same document were added before.
func (l *Loader) appendPages(wf *core.Workflow, doc *core.Document) {
	if wf.HasPagesOf(doc.ID) {
		l.logger.Info("document pages already in workflow", "document", doc.Name)
		return
	}
	wf.AllPages = append(wf.AllPages, doc.Pages...)
	l.logger.Info("document pages added to workflow", "document", doc.Name, "pages", len(doc.Pages))
}

// attach visits child workflows first, then the blocks of wf itself.
func (l *Loader) attach(wf *core.Workflow, blockOrder *int, info *core.DocumentInfo) error {
	for _, child := range wf.Children {
		if err := l.attach(child, blockOrder, info); err != nil {
			return err
		}
	}

	if blockOrder != nil {
		block, err := wf.Block(*blockOrder)
		if err != nil {
			return err
		}
		l.loadDocumentToBlock(block, info)
		return nil
	}

	for _, block := range wf.Blocks {
		l.loadDocumentToBlock(block, info)
	}
	return nil
}

func (l *Loader) loadDocumentToBlock(block *core.Block, info *core.DocumentInfo) {
	doc := info.Document

	if !block.ShouldUseDocuments() || !info.CanBeProcessedForBlock(block) {
		l.logger.Debug("document cannot be processed for block", "document", doc.Name, "block", block.Name)
		return
	}

	if len(block.RagSettings) == 0 {
		l.logger.Warn("block does not have RAG settings", "block", block.Name)
		return
	}

	if block.HasDocument(info.Key()) {
		l.logger.Debug("document already attached to block", "document", doc.Name, "block", block.Name)
		return
	}

	l.logger.Info("attaching document to block", "document", doc.Name, "block", block.Name)
	block.Documents = append(block.Documents, doc)
}

// generateTopics computes the workflow topic summary once. Failures are logged.
func (l *Loader) generateTopics(ctx context.Context, wf *core.Workflow) {
	if wf.HasTopics() {
		l.logger.Debug("workflow topics already generated", "workflow", wf.Name)
		return
	}

	l.logger.Info("workflow uses topics, generating topics", "workflow", wf.Name, "pages", len(wf.AllPages))
	topics, err := l.analyzer.GenerateTopicsSummary(ctx, wf.AllPages)
	if err != nil {
		l.logger.Error("error generating topics", "workflow", wf.Name, "err", err)
		return
	}
	wf.SetTopics(topics)
}

func documentID(info *core.DocumentInfo) string {
	if info == nil {
		return ""
	}
	return info.DocumentID
}

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

package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/docflow/core"
)

// handler fills the pages of a document of one media type.
type handler func(ctx context.Context, doc *core.Document, opts *ProcessOptions) error

// registerHandlers builds the media type strategy table.
func (p *Pipeline) registerHandlers() {
	p.handlers = map[core.MediaType]handler{
		core.MediaTypePDF:  p.processPDF,
		core.MediaTypeJPEG: p.processImage,
		core.MediaTypePNG:  p.processImage,
		core.MediaTypeCSV:  p.processCSV,
		core.MediaTypeXLS:  p.processSpreadsheet,
		core.MediaTypeXLSX: p.processSpreadsheet,
	}
}

// fileBytes returns the content of the document's file. ok is false when the
// document has no file at all, which is logged and skipped by the caller.
func (p *Pipeline) fileBytes(doc *core.Document) (data []byte, ok bool, err error) {
	if doc.File == nil {
		p.logger.Error("document does not have a file", "document", doc.Name)
		return nil, false, nil
	}
	if len(doc.File.Bytes) == 0 {
		return nil, true, fmt.Errorf("%w: %q", ErrMissingFileBytes, doc.Name)
	}
	return doc.File.Bytes, true, nil
}

// generateOverviews fills the overview of every page that has none.
// Provider errors are logged and leave the page without an overview.
func (p *Pipeline) generateOverviews(ctx context.Context, doc *core.Document) {
	generated := 0
	for _, page := range doc.Pages {
		if page.HasOverview() {
			continue
		}
		overview, err := p.analyzer.GenerateOverview(ctx, page)
		if err != nil {
			p.logger.Error("error generating overview",
				"document", doc.Name,
				"page", page.Number(),
				"err", err)
			continue
		}
		page.Overview = overview
		generated++
	}
	p.logger.Debug("generated overviews", "document", doc.Name, "pages", generated)
}

func (p *Pipeline) detectSectionTitles(ctx context.Context, doc *core.Document) {
	if err := p.analyzer.DetectSectionTitles(ctx, doc); err != nil {
		p.logger.Error("error detecting section titles", "document", doc.Name, "err", err)
	}
}

// embed runs the shared embedding step over all pages of doc.
func (p *Pipeline) embed(ctx context.Context, doc *core.Document) error {
	alreadyEmbedded, erroneous := 0, 0
	for _, page := range doc.Pages {
		if page.Embedding != nil {
			alreadyEmbedded++
			if page.Embedding.IsError() {
				erroneous++
			}
		}
	}

	stats, err := p.batcher.EmbedPages(ctx, doc.Pages)
	if err != nil {
		return err
	}

	p.logger.Info("embedded document pages",
		"document", doc.Name,
		"pages", len(doc.Pages),
		"already_embedded", alreadyEmbedded,
		"erroneous", erroneous,
		"embedded", stats.Embedded,
		"failed", stats.Failed)
	return nil
}

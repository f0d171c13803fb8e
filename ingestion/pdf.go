package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/docflow/core"
)

func (p *Pipeline) processPDF(ctx context.Context, doc *core.Document, opts *ProcessOptions) error {
	p.logger.Info("processing PDF document", "document", doc.Name)

	data, ok, err := p.fileBytes(doc)
	if !ok || err != nil {
		return err
	}

	pages, err := p.extractor.ExtractPages(ctx, data, doc.MediaType)
	if err != nil {
		return fmt.Errorf("extract pages of %q: %w", doc.Name, err)
	}

	for _, extracted := range pages {
		page := doc.GetOrCreatePage(extracted.Number)
		if page.RawText == "" {
			page.RawText = strings.ReplaceAll(extracted.Text, "\x00", "")
		}
	}

	if opts.GenerateOverviews {
		p.generateOverviews(ctx, doc)
	}
	if opts.DetectSectionTitles {
		p.detectSectionTitles(ctx, doc)
	}
	return p.embed(ctx, doc)
}

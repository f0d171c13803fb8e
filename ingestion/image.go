package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/docflow/core"
)

// OCR recognizes text in an image. No implementation ships with this module;
// callers plug one in with WithOCR.
type OCR interface {
	Recognize(ctx context.Context, image *core.BinaryContent) (string, error)
}

func (p *Pipeline) processImage(ctx context.Context, doc *core.Document, opts *ProcessOptions) error {
	p.logger.Info("processing media document", "document", doc.Name)

	if doc.File == nil {
		p.logger.Error("document does not have a file", "document", doc.Name)
		return nil
	}

	page := doc.GetOrCreatePage(1)
	if page.Image == nil {
		data, _, err := p.fileBytes(doc)
		if err != nil {
			return err
		}
		page.Image = &core.BinaryContent{Data: data, MediaType: doc.MediaType}
	}

	if p.ocr == nil {
		p.logger.Debug("OCR disabled, keeping image only", "document", doc.Name)
		return nil
	}

	p.logger.Info("processing media document with OCR", "document", doc.Name)
	text, err := p.ocr.Recognize(ctx, page.Image)
	if err != nil {
		return fmt.Errorf("recognize text of %q: %w", doc.Name, err)
	}
	text = strings.ReplaceAll(text, "\x00", "")
	if page.RawText == "" {
		page.RawText = text
	}
	if page.Text == "" {
		page.Text = text
	}

	if opts.GenerateOverviews {
		p.generateOverviews(ctx, doc)
	}
	if opts.DetectSectionTitles {
		p.detectSectionTitles(ctx, doc)
	}

	if page.HasValidEmbedding() {
		p.logger.Debug("page already has an embedding", "document", doc.Name, "page", page.Number())
		return nil
	}
	if !page.HasOverview() {
		p.logger.Error("failed to get overview for page", "document", doc.Name, "page", page.Number())
	}
	return p.batcher.EmbedPage(ctx, page, FallbackOverview)
}

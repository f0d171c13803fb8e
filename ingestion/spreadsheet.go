package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/docflow/core"
)

// processSpreadsheet creates one page per worksheet the first time a workbook is seen.
// Section titles are not detected for workbooks.
func (p *Pipeline) processSpreadsheet(ctx context.Context, doc *core.Document, opts *ProcessOptions) error {
	p.logger.Info("processing spreadsheet document", "document", doc.Name)

	if doc.File == nil {
		p.logger.Error("document does not have a file", "document", doc.Name)
		return nil
	}

	if len(doc.Pages) == 0 {
		data, _, err := p.fileBytes(doc)
		if err != nil {
			return err
		}
		sheets, err := p.extractor.ExtractPages(ctx, data, doc.MediaType)
		if err != nil {
			return fmt.Errorf("extract sheets of %q: %w", doc.Name, err)
		}
		for _, sheet := range sheets {
			doc.GetOrCreatePage(sheet.Number).RawText = sheet.Text
		}
		p.logger.Debug("chunked workbook", "document", doc.Name, "sheets", len(sheets))
	} else {
		p.logger.Info("document already has pages", "document", doc.Name, "pages", len(doc.Pages))
	}

	if opts.GenerateOverviews {
		p.generateOverviews(ctx, doc)
	}
	return p.embed(ctx, doc)
}

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/poiesic/docflow/core"
)

// PDFExtractor reads PDF text page by page.
type PDFExtractor struct {
	conf   *model.Configuration
	logger *slog.Logger
}

// NewPDFExtractor creates a PDFExtractor using relaxed validation.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{
		conf:   conf,
		logger: logger.With("format", "pdf"),
	}
}

// ExtractPages returns one Page per page of the PDF, numbered from 1.
// A page whose content cannot be read is returned with an error notice as text.
func (e *PDFExtractor) ExtractPages(ctx context.Context, data []byte, mt core.MediaType) ([]Page, error) {
	if mt != core.MediaTypePDF {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
	}

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}

	e.logger.Debug("reading pdf", "pages", pdfCtx.PageCount)

	pages := make([]Page, 0, pdfCtx.PageCount)
	for n := 1; n <= pdfCtx.PageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := e.pageText(pdfCtx, n)
		if err != nil {
			e.logger.Warn("error extracting page text", "page", n, "err", err)
			text = fmt.Sprintf("Error extracting text from page %d", n)
		}
		pages = append(pages, Page{Number: n, Text: text})
	}
	return pages, nil
}

func (e *PDFExtractor) pageText(pdfCtx *model.Context, n int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, n)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return ScanText(content), nil
}

package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docflow/core"
)

// Page is the text extracted for one page of a source document.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text. For PDF pages whose content stream could
	// not be read it holds an error notice instead.
	Text string

	// Title is the worksheet name for workbook pages.
	Title string
}

// Extractor reads the pages of a document.
type Extractor interface {
	ExtractPages(ctx context.Context, data []byte, mt core.MediaType) ([]Page, error)
}

// Option configures a Composite extractor.
type Option func(*Composite) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composite) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// Composite dispatches to the PDF or workbook reader by media type.
type Composite struct {
	pdf      *PDFExtractor
	workbook *WorkbookExtractor
	logger   *slog.Logger
}

var _ Extractor = (*Composite)(nil)

// New creates an extractor for PDF and workbook media types.
func New(opts ...Option) (*Composite, error) {
	c := &Composite{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "extractor")
	c.pdf = NewPDFExtractor(c.logger)
	c.workbook = NewWorkbookExtractor(c.logger)
	return c, nil
}

// ExtractPages extracts the pages of data according to mt.
func (c *Composite) ExtractPages(ctx context.Context, data []byte, mt core.MediaType) ([]Page, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	switch mt {
	case core.MediaTypePDF:
		return c.pdf.ExtractPages(ctx, data, mt)
	case core.MediaTypeXLSX, core.MediaTypeXLS:
		return c.workbook.ExtractPages(ctx, data, mt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
}

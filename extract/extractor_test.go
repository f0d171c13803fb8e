package extract

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildPDF assembles a minimal PDF whose page i shows the text texts[i].
func buildPDF(texts ...string) []byte {
	n := len(texts)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs
	objects := make([]string, 0, 3+2*n)
	kids := make([]string, n)
	for i := range texts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", joinSpace(kids), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range texts {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func joinSpace(items []string) string {
	var buf bytes.Buffer
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(item)
	}
	return buf.String()
}

func TestCompositeRejects(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	_, err = e.ExtractPages(context.Background(), nil, core.MediaTypePDF)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.ExtractPages(context.Background(), []byte("a,b"), core.MediaTypeCSV)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = e.ExtractPages(context.Background(), []byte{0xD0, 0xCF}, core.MediaTypeXLS)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestPDFExtractPages(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	data := buildPDF("First page", "Second page", "Third page")
	pages, err := e.ExtractPages(context.Background(), data, core.MediaTypePDF)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, want := range []string{"First page", "Second page", "Third page"} {
		assert.Equal(t, i+1, pages[i].Number)
		assert.Equal(t, want, pages[i].Text)
	}
}

func TestPDFCorrupt(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	_, err = e.ExtractPages(context.Background(), []byte("not a pdf"), core.MediaTypePDF)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Age"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Alice"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 30))
	_, err := f.NewSheet("Totals")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Totals", "A1", "Sum"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestWorkbookExtractPages(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	pages, err := e.ExtractPages(context.Background(), buildWorkbook(t), core.MediaTypeXLSX)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Sheet1", pages[0].Title)
	assert.Equal(t, "Sheet: Sheet1\nName\tAge\nAlice\t30\n", pages[0].Text)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "Totals", pages[1].Title)
}

// OOXML content labelled as a legacy workbook is read by its content.
func TestWorkbookLabelledLegacy(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	pages, err := e.ExtractPages(context.Background(), buildWorkbook(t), core.MediaTypeXLS)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Sheet: Sheet1\nName\tAge\nAlice\t30\n", pages[0].Text)
	assert.Equal(t, "Totals", pages[1].Title)
}

func TestWorkbookCorrupt(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	for _, mt := range []core.MediaType{core.MediaTypeXLSX, core.MediaTypeXLS} {
		_, err = e.ExtractPages(context.Background(), []byte("garbage"), mt)
		assert.ErrorIs(t, err, ErrCorruptDocument, mt)

		_, err = e.ExtractPages(context.Background(), []byte("PK\x03\x04truncated"), mt)
		assert.ErrorIs(t, err, ErrCorruptDocument, mt)
	}
}

func TestCancelledExtraction(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ExtractPages(ctx, buildPDF("x"), core.MediaTypePDF)
	assert.ErrorIs(t, err, context.Canceled)
}

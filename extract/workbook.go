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

package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/extrame/xls"
	"github.com/poiesic/docflow/core"
	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// WorkbookExtractor reads OOXML and legacy BIFF workbooks, one page per worksheet.
// The format is taken from the content, not the media type, since .xlsx files are
// often labelled application/vnd.ms-excel.
type WorkbookExtractor struct {
	logger *slog.Logger
}

// NewWorkbookExtractor creates a WorkbookExtractor.
func NewWorkbookExtractor(logger *slog.Logger) *WorkbookExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExtractor{logger: logger.With("format", "workbook")}
}

type sheet struct {
	name string
	rows [][]string
}

// ExtractPages returns one Page per worksheet in workbook order. Page text starts
// with a "Sheet: <name>" line followed by one tab-separated line per non-empty row.
func (e *WorkbookExtractor) ExtractPages(ctx context.Context, data []byte, mt core.MediaType) ([]Page, error) {
	if !mt.IsSpreadsheet() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
	}

	var (
		sheets []sheet
		err    error
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		sheets, err = e.readOOXML(ctx, data)
	case bytes.HasPrefix(data, oleMagic):
		sheets, err = e.readBIFF(ctx, data)
	default:
		return nil, fmt.Errorf("%w: not a workbook", ErrCorruptDocument)
	}
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(sheets))
	for i, s := range sheets {
		pages = append(pages, Page{
			Number: i + 1,
			Title:  s.name,
			Text:   renderSheet(s.name, s.rows),
		})
	}

	e.logger.Debug("read workbook", "media_type", mt, "sheets", len(pages))
	return pages, nil
}

func (e *WorkbookExtractor) readOOXML(ctx context.Context, data []byte) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("error closing workbook", "err", err)
		}
	}()

	names := f.GetSheetList()
	sheets := make([]sheet, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return sheets, nil
}

// readBIFF reads a legacy .xls workbook. The reader panics on some malformed
// files, which is reported as ErrCorruptDocument.
func (e *WorkbookExtractor) readBIFF(ctx context.Context, data []byte) (sheets []sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("%w: %v", ErrCorruptDocument, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}

	sheets = make([]sheet, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, sheet{name: ws.Name, rows: rows})
	}
	return sheets, nil
}

func renderSheet(name string, rows [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sheet: %s\n", name)
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

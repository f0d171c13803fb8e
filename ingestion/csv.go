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
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/docflow/core"
)

// FallbackOverview is embedded in place of a missing overview for single-page
// CSV and OCR documents.
const FallbackOverview = "An overview for this content is currently unavailable"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// processCSV flattens the table into "<header>: <value>" lines and embeds the page.
func (p *Pipeline) processCSV(ctx context.Context, doc *core.Document, _ *ProcessOptions) error {
	p.logger.Info("processing CSV document", "document", doc.Name)

	data, ok, err := p.fileBytes(doc)
	if !ok || err != nil {
		return err
	}

	page := doc.GetOrCreatePage(1)
	page.RawText = string(data)

	text, err := flattenCSV(data)
	if err != nil {
		return fmt.Errorf("parse CSV %q: %w", doc.Name, err)
	}
	page.RawText = text

	return p.batcher.EmbedPage(ctx, page, FallbackOverview)
}

// flattenCSV renders every non-empty cell as "<header>: <value>\n" and ends each
// data row with a blank line. The first record is the header; blank header cells
// and cells beyond the header are named Column<N>.
func flattenCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(data) * 2)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		for i, value := range record {
			if strings.TrimSpace(value) == "" {
				continue
			}
			sb.WriteString(columnName(header, i))
			sb.WriteString(": ")
			sb.WriteString(value)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func columnName(header []string, i int) string {
	if i < len(header) && strings.TrimSpace(header[i]) != "" {
		return header[i]
	}
	return fmt.Sprintf("Column%d", i+1)
}

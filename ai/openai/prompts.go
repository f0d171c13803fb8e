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

package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/docflow/core"
)

const overviewSystemPrompt = `You summarize a single page of a business document.

Write 2-4 plain sentences describing what the page is about: its subject, the kind of
information it holds (tables, figures, lists, narrative) and any names, dates or amounts
that identify it. Do not add a preamble. Do not invent content that is not on the page.
If the page is empty or unreadable, answer with an empty string.`

const topicsSystemPrompt = `You are given the pages of one or more documents, each introduced by a
"### <document> page <n>" marker.

List the main topics covered across all pages as a short bulleted list, one topic per
line, starting each line with "- ". Merge topics that appear in several documents.
Output only the list.`

const tableOfContentsSystemPrompt = `You build a table of contents for a document whose pages are
introduced by "### page <n>" markers.

Follow this model for the structure and naming of the entries:

%s

Output one entry per line in the form "<title> ... <page number>". Only use page numbers
that exist in the document. Output only the table of contents.`

const sectionTitlesResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "pages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "page": {"type": "integer", "minimum": 1},
          "titles": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["page", "titles"],
        "additionalProperties": false
      }
    }
  },
  "required": ["pages"],
  "additionalProperties": false
}`

const sectionTitlesPromptTemplate = `Find the section titles printed on each page of the given document.
Pages are introduced by "### page <n>" markers.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace {
and end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- Copy titles verbatim, in the order they appear on the page.
- Headings, chapter names and numbered section captions are titles. Running headers and
  page footers are not.
- A page without titles is listed with "titles": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
{
  "pages": [
    {"page": 1, "titles": ["1. Introduction", "1.1 Scope"]},
    {"page": 2, "titles": []}
  ]
}`

func buildSectionTitlesPrompt() string {
	return fmt.Sprintf(sectionTitlesPromptTemplate, sectionTitlesResponseSchema)
}

func buildTableOfContentsPrompt(model string) string {
	return fmt.Sprintf(tableOfContentsSystemPrompt, strings.TrimSpace(model))
}

// renderPages writes pages behind markers, stopping once max characters are used.
func renderPages(pages []*core.Page, label func(*core.Page) string, max int) string {
	var sb strings.Builder
	for _, p := range pages {
		text := cleanText(p.Content())
		if text == "" {
			continue
		}
		header := fmt.Sprintf("### %s\n", label(p))
		remaining := max - sb.Len() - len(header)
		if remaining <= 0 {
			break
		}
		sb.WriteString(header)
		sb.WriteString(clip(text, remaining))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

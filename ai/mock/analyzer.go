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

package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/docflow/core"
)

// MockAnalyzer is a canned ai.Analyzer.
//
// Without overrides it summarizes a page as "Overview of page N: <first line>",
// lists one topic per page and writes a table of contents made of the first
// line of every page.
type MockAnalyzer struct {
	GenerateOverviewFunc        func(ctx context.Context, page *core.Page) (string, error)
	GenerateTopicsSummaryFunc   func(ctx context.Context, pages []*core.Page) (string, error)
	GenerateTableOfContentsFunc func(ctx context.Context, doc *core.Document, model string) error
	DetectSectionTitlesFunc     func(ctx context.Context, doc *core.Document) error

	mu    sync.Mutex
	calls map[string]int
	toc   []TableOfContentsCall
}

// TableOfContentsCall records one GenerateTableOfContents invocation.
type TableOfContentsCall struct {
	DocumentID string
	Model      string
}

// NewMockAnalyzer creates a MockAnalyzer with default behavior.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{calls: make(map[string]int)}
}

// GenerateOverview returns a canned overview.
func (m *MockAnalyzer) GenerateOverview(ctx context.Context, page *core.Page) (string, error) {
	m.count("GenerateOverview")
	if m.GenerateOverviewFunc != nil {
		return m.GenerateOverviewFunc(ctx, page)
	}
	return fmt.Sprintf("Overview of page %d: %s", page.Number(), firstLine(page.Content())), nil
}

// GenerateTopicsSummary returns one topic line per page.
func (m *MockAnalyzer) GenerateTopicsSummary(ctx context.Context, pages []*core.Page) (string, error) {
	m.count("GenerateTopicsSummary")
	if m.GenerateTopicsSummaryFunc != nil {
		return m.GenerateTopicsSummaryFunc(ctx, pages)
	}
	lines := make([]string, 0, len(pages))
	for _, p := range pages {
		lines = append(lines, "- "+firstLine(p.Content()))
	}
	return strings.Join(lines, "\n"), nil
}

// GenerateTableOfContents records the call and writes a canned table of contents.
func (m *MockAnalyzer) GenerateTableOfContents(ctx context.Context, doc *core.Document, model string) error {
	m.count("GenerateTableOfContents")
	m.mu.Lock()
	m.toc = append(m.toc, TableOfContentsCall{DocumentID: doc.ID, Model: model})
	m.mu.Unlock()

	if m.GenerateTableOfContentsFunc != nil {
		return m.GenerateTableOfContentsFunc(ctx, doc, model)
	}
	var sb strings.Builder
	for _, p := range doc.Pages {
		fmt.Fprintf(&sb, "%s ... %d\n", firstLine(p.Content()), p.Number())
	}
	doc.TableOfContents = strings.TrimSpace(sb.String())
	return nil
}

// DetectSectionTitles uses the first line of each page as its only title.
func (m *MockAnalyzer) DetectSectionTitles(ctx context.Context, doc *core.Document) error {
	m.count("DetectSectionTitles")
	if m.DetectSectionTitlesFunc != nil {
		return m.DetectSectionTitlesFunc(ctx, doc)
	}
	for _, p := range doc.Pages {
		if title := firstLine(p.Content()); title != "" {
			p.SectionTitles = []string{title}
		}
	}
	return nil
}

// CallCount returns how many times the named method was called.
func (m *MockAnalyzer) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TableOfContentsCalls returns the recorded GenerateTableOfContents calls in order.
func (m *MockAnalyzer) TableOfContentsCalls() []TableOfContentsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TableOfContentsCall(nil), m.toc...)
}

func (m *MockAnalyzer) count(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

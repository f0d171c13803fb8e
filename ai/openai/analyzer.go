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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// Analyzer implements ai.Analyzer on top of an OpenAI-compatible chat model.
type Analyzer struct {
	client   llms.Model
	maxInput int
	logger   *slog.Logger
}

type pageTitles struct {
	Page   int      `json:"page"`
	Titles []string `json:"titles"`
}

type sectionTitles struct {
	Pages []pageTitles `json:"pages"`
}

func newAnalyzer(config *ai.Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return newAnalyzerWithModel(client, config.MaxInputChars), nil
}

func newAnalyzerWithModel(client llms.Model, maxInput int) *Analyzer {
	return &Analyzer{
		client:   client,
		maxInput: maxInput,
		logger:   slog.Default().With("component", "openai-analyzer"),
	}
}

// NewAnalyzer creates an Analyzer from the configuration.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	return newAnalyzer(config)
}

// GenerateOverview summarizes a page from its text, or from its image when it has no text.
func (a *Analyzer) GenerateOverview(ctx context.Context, page *core.Page) (string, error) {
	var part llms.ContentPart
	if text := cleanText(page.Content()); text != "" {
		part = llms.TextPart(clip(text, a.maxInput))
	} else if page.Image != nil && len(page.Image.Data) > 0 {
		part = llms.BinaryPart(string(page.Image.MediaType), page.Image.Data)
	} else {
		a.logger.Debug("page has no content to summarize", "page", page.Number())
		return "", nil
	}

	overview, err := a.generate(ctx, overviewSystemPrompt, part)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(overview), nil
}

// GenerateTopicsSummary lists the topics covered across pages.
func (a *Analyzer) GenerateTopicsSummary(ctx context.Context, pages []*core.Page) (string, error) {
	body := renderPages(pages, func(p *core.Page) string {
		return fmt.Sprintf("%s page %d", p.DocumentID, p.Number())
	}, a.maxInput)
	if body == "" {
		return "", nil
	}

	summary, err := a.generate(ctx, topicsSystemPrompt, llms.TextPart(body))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// GenerateTableOfContents builds a table of contents following model and stores it on doc.
func (a *Analyzer) GenerateTableOfContents(ctx context.Context, doc *core.Document, model string) error {
	body := renderPages(doc.Pages, pageLabel, a.maxInput)
	if body == "" {
		a.logger.Debug("document has no text for a table of contents", "document", doc.Name)
		return nil
	}

	toc, err := a.generate(ctx, buildTableOfContentsPrompt(model), llms.TextPart(body))
	if err != nil {
		return err
	}
	doc.TableOfContents = strings.TrimSpace(toc)
	return nil
}

// DetectSectionTitles asks the model for the titles on each page and stores them.
func (a *Analyzer) DetectSectionTitles(ctx context.Context, doc *core.Document) error {
	body := renderPages(doc.Pages, pageLabel, a.maxInput)
	if body == "" {
		return nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSectionTitlesPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(body)},
		},
	}

	// Retry in case of malformed JSON
	var result sectionTitles
	var lastErr error
	for attempt := range maxParseAttempts {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return nil
		}

		responseText := repairJSON(stripCodeFence(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing section titles response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return fmt.Errorf("parse section titles: %w", lastErr)
	}

	for _, pt := range result.Pages {
		page := doc.Page(pt.Page)
		if page == nil {
			a.logger.Debug("model returned titles for unknown page", "document", doc.Name, "page", pt.Page)
			continue
		}
		page.SectionTitles = pt.Titles
	}
	return nil
}

func (a *Analyzer) generate(ctx context.Context, system string, part llms.ContentPart) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{part},
		},
	}

	response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		a.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		a.logger.Debug("no choices returned from model")
		return "", nil
	}
	return response.Choices[0].Content, nil
}

func pageLabel(p *core.Page) string {
	return fmt.Sprintf("page %d", p.Number())
}

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

package workflow

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/docflow/core"
)

// generateTablesOfContents generates a table of contents for every document
// accepted by at least one table of contents setting of a child workflow.
//
// Documents are handled in input order. The first selected document without a
// resolved model stops the remaining documents; this is logged and not an error.
func (l *Loader) generateTablesOfContents(ctx context.Context, infos []*core.DocumentInfo, wf *core.Workflow, onProcessed func(context.Context, string) error) error {
	settings := tableOfContentsSettings(wf)

	selected, err := l.selectDocuments(infos, settings)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		l.logger.Info("no documents to generate table of contents for")
		return nil
	}

	models, err := l.resolveModels(infos, settings)
	if err != nil {
		return err
	}

	for _, info := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := info.Document
		model, ok := models[info.Key()]
		if !ok {
			l.logger.Warn("no table of contents model found for document, stopping", "document", doc.Name)
			return nil
		}

		l.logger.Info("generating table of contents", "document", doc.Name, "model", model)
		if err := l.analyzer.GenerateTableOfContents(ctx, doc, model); err != nil {
			l.logger.Error("error generating table of contents", "document", doc.Name, "err", err)
			continue
		}

		if onProcessed != nil {
			if err := onProcessed(ctx, doc.Name); err != nil {
				l.logger.Error("document callback failed", "document", doc.Name, "err", err)
			}
		}
	}
	return nil
}

// tableOfContentsSettings collects the table of contents settings of child
// workflows only, ordered by child Order then block Order.
func tableOfContentsSettings(wf *core.Workflow) []*core.RagSettings {
	children := slices.Clone(wf.Children)
	slices.SortStableFunc(children, func(a, b *core.Workflow) int {
		return cmp.Compare(a.Order, b.Order)
	})

	var settings []*core.RagSettings
	for _, child := range children {
		blocks := slices.Clone(child.Blocks)
		slices.SortStableFunc(blocks, func(a, b *core.Block) int {
			return cmp.Compare(a.Order, b.Order)
		})
		for _, block := range blocks {
			for _, rs := range block.RagSettings {
				if rs.Type == core.RagTypeUseAutoDetectedTableOfContents {
					settings = append(settings, rs)
				}
			}
		}
	}
	return settings
}

// selectDocuments keeps the documents accepted by at least one setting.
func (l *Loader) selectDocuments(infos []*core.DocumentInfo, settings []*core.RagSettings) ([]*core.DocumentInfo, error) {
	var selected []*core.DocumentInfo
	for _, info := range infos {
		if info == nil || info.Document == nil {
			l.logger.Error("document is nil", "document_id", documentID(info))
			continue
		}

		for _, rs := range settings {
			if rs.Block == nil {
				return nil, fmt.Errorf("%w: %s", ErrRagSettingsWithoutBlock, rs.ID)
			}
			if info.CanBeProcessedForBlock(rs.Block) {
				selected = append(selected, info)
				break
			}
		}
	}
	return selected, nil
}

// resolveModels maps each document to the model of the first setting whose block
// accepts it and whose model is not empty.
func (l *Loader) resolveModels(infos []*core.DocumentInfo, settings []*core.RagSettings) (map[string]string, error) {
	models := make(map[string]string)
	for _, info := range infos {
		if info == nil {
			continue
		}

		for _, rs := range settings {
			if rs.Block == nil {
				return nil, fmt.Errorf("%w: %s", ErrRagSettingsWithoutBlock, rs.ID)
			}
			if !info.CanBeProcessedForBlock(rs.Block) {
				continue
			}
			if rs.TableOfContentsModel == "" {
				l.logger.Warn("table of contents settings have no model", "block", rs.Block.Name)
				continue
			}
			models[info.Key()] = rs.TableOfContentsModel
			break
		}

		if model, ok := models[info.Key()]; ok {
			l.logger.Debug("table of contents model found", "document_id", info.Key(), "model", model)
		} else {
			l.logger.Debug("table of contents model not found", "document_id", info.Key())
		}
	}
	return models, nil
}

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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/workflow"
	"github.com/urfave/cli/v2"
)

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	refs, err := parseDocumentRefs(c.StringSlice("doc"))
	if err != nil {
		return err
	}

	def, err := workflow.LoadDefinition(c.String("workflow"))
	if err != nil {
		return err
	}
	wf, err := def.Build()
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	repo := engine.DocumentRepository()
	infos := make([]*core.DocumentInfo, 0, len(refs))
	docs := make([]*core.Document, 0, len(refs))
	for _, ref := range refs {
		doc, err := repo.GetDocument(ctx, ref.id)
		if err != nil {
			return fmt.Errorf("document %s: %w", ref.id, err)
		}
		infos = append(infos, core.NewDocumentInfo(doc, ref.class))
		docs = append(docs, doc)
	}

	loader, err := engine.NewLoader()
	if err != nil {
		return err
	}

	opts := &workflow.LoadOptions{
		OnProcessed: func(ctx context.Context, name string) error {
			fmt.Fprintf(c.App.ErrWriter, "Table of contents generated for %s\n", name)
			return nil
		},
	}
	if c.IsSet("block") {
		opts.BlockOrder = workflow.BlockOrder(c.Int("block"))
	}
	if err := loader.LoadContext(ctx, infos, wf, opts); err != nil {
		return fmt.Errorf("loading context failed: %w", err)
	}

	// Persist generated tables of contents.
	if err := repo.SaveDocuments(ctx, docs...); err != nil {
		return fmt.Errorf("failed to save documents: %w", err)
	}

	printWorkflow(c, wf, docs)
	return nil
}

type documentRef struct {
	id    string
	class string
}

// parseDocumentRefs parses id=class pairs. A missing class leaves it empty,
// which only blocks without class restrictions accept.
func parseDocumentRefs(values []string) ([]documentRef, error) {
	refs := make([]documentRef, 0, len(values))
	for _, v := range values {
		id, class, _ := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("invalid document reference %q: expected id=class", v)
		}
		refs = append(refs, documentRef{id: id, class: strings.TrimSpace(class)})
	}
	return refs, nil
}

func printWorkflow(c *cli.Context, wf *core.Workflow, docs []*core.Document) {
	w := c.App.Writer
	fmt.Fprintf(w, "Workflow %s: %d pages\n", wf.Name, len(wf.AllPages))
	for _, block := range wf.AllBlocks() {
		names := make([]string, 0, len(block.Documents))
		for _, doc := range block.Documents {
			names = append(names, doc.Name)
		}
		fmt.Fprintf(w, "  %s/%s (order %d): %d documents %v\n",
			block.Workflow().Name, block.Name, block.Order, len(block.Documents), names)
	}
	if wf.AllPagesTopics != "" {
		fmt.Fprintf(w, "\nTopics:\n%s\n", wf.AllPagesTopics)
	}
	for _, doc := range docs {
		if doc.TableOfContents != "" {
			fmt.Fprintf(w, "\nTable of contents of %s:\n%s\n", doc.Name, doc.TableOfContents)
		}
	}
}

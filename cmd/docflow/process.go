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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/storage"
	"github.com/urfave/cli/v2"
)

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	repo := engine.DocumentRepository()
	var docs []*core.Document
	for _, path := range c.StringSlice("file") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		existing, err := repo.FindDocumentByChecksum(ctx, core.Checksum(data))
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return fmt.Errorf("failed to look up %s: %w", path, err)
		default:
			fmt.Fprintf(c.App.Writer, "Reusing stored document %s for %s\n", existing.ID, path)
			docs = append(docs, existing)
			continue
		}

		name := filepath.Base(path)
		mt, err := detectMediaType(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, core.NewDocument(mt, core.NewFile(name, data)))
	}

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	opts := &ingestion.ProcessOptions{
		GenerateOverviews:   !c.Bool("no-overviews"),
		DetectSectionTitles: !c.Bool("no-section-titles"),
		OnProcessed: func(ctx context.Context, name string) error {
			fmt.Fprintf(c.App.ErrWriter, "Processed %s\n", name)
			return nil
		},
	}
	if err := pipeline.ProcessDocuments(ctx, docs, opts); err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	if err := repo.SaveDocuments(ctx, docs...); err != nil {
		return fmt.Errorf("failed to save documents: %w", err)
	}

	for _, doc := range docs {
		embedded := 0
		for _, page := range doc.Pages {
			if page.HasValidEmbedding() {
				embedded++
			}
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%d pages\t%d embedded\n",
			doc.ID, doc.Name, doc.MediaType, len(doc.Pages), embedded)
	}
	return nil
}

// detectMediaType sniffs the content first and falls back to the file extension
// when the detected type is not one the pipeline handles.
func detectMediaType(name string, data []byte) (core.MediaType, error) {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if mt, err := core.ParseMediaType(m.String()); err == nil {
			return mt, nil
		}
	}
	return core.MediaTypeFromFilename(name)
}

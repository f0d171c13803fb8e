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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/docflow"
	"github.com/poiesic/docflow/ai"
	"github.com/urfave/cli/v2"
)

// newEngine is replaced in tests to inject a mock provider.
var newEngine = docflow.NewEngine

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docflow",
		Usage: "Document processing and workflow context loading",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Extract, summarize and embed documents and store them",
				Action: processCommand,
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document to process (repeatable)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "no-overviews",
						Usage: "Skip page overview generation",
					},
					&cli.BoolFlag{
						Name:  "no-section-titles",
						Usage: "Skip section title detection",
					},
				),
			},
			{
				Name:   "load",
				Usage:  "Load stored documents into a workflow and generate its context",
				Action: loadCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "workflow",
						Aliases:  []string{"w"},
						Usage:    "Path to the YAML workflow definition",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "doc",
						Usage:    "Stored document and its class as id=class (repeatable)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "block",
						Usage: "Only attach documents to blocks with this order",
					},
				),
			},
			{
				Name:   "search",
				Usage:  "Find the pages most similar to a query",
				Action: searchCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of pages to return",
						Value: 5,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Embed the pages of all stored documents again",
				Action: reembedCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of documents embedded concurrently",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: time.Second,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Embed pages that already have an embedding and ignore saved progress",
					},
				),
			},
		},
	}
}

// commonFlags returns the database and AI service flags shared by every command.
func commonFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: defaults.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "generator-host",
			Usage: "Text generation service host URL",
			Value: defaults.GeneratorHost,
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Text generation model name",
			Value: defaults.GeneratorModel,
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the AI services",
			EnvVars: []string{"DOCFLOW_API_TOKEN"},
		},
	}
}

func aiConfig(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorHost(c.String("generator-host")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithToken(c.String("token")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openEngine(c *cli.Context) (*docflow.Engine, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	config, err := aiConfig(c)
	if err != nil {
		return nil, err
	}

	engine, err := newEngine(dbPath, docflow.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

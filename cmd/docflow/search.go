package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	matches, err := searcher.FindPages(ctx, c.String("query"), c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d hits\n", len(matches))
	for i, hit := range matches {
		fmt.Fprintf(w, "%d: %s page %d [%0.3f]\n", i, hit.DocumentName, hit.Page.Number(), hit.Score)
		if hit.Page.Overview != "" {
			fmt.Fprintf(w, "   %s\n", hit.Page.Overview)
		}
	}
	return nil
}

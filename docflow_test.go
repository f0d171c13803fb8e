package docflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/reembed"
	"github.com/poiesic/docflow/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		engine, err := NewEngine(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		assert.NotNil(t, engine.DocumentRepository())
		assert.NotNil(t, engine.CheckpointRepository())
		assert.NotNil(t, engine.Provider())
		assert.NotNil(t, engine.backend)
		assert.NotNil(t, engine.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		engine, err := NewEngine(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, engine)
	})

	t.Run("in memory with injected provider", func(t *testing.T) {
		provider := mock.NewMockProvider()
		engine, err := NewEngine("", WithInMemory(), WithProvider(provider))
		require.NoError(t, err)
		defer engine.Close()

		assert.Same(t, provider, engine.Provider())
	})
}

func TestEngine_Close(t *testing.T) {
	engine, err := NewEngine(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, engine)

	err = engine.Close()
	assert.NoError(t, err)
	assert.True(t, engine.backend.IsClosed())
}

func TestEngine_FactoryMethods(t *testing.T) {
	engine, err := NewEngine("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer engine.Close()

	t.Run("can create pipeline", func(t *testing.T) {
		pipeline, err := engine.NewPipeline()
		require.NoError(t, err)
		assert.Contains(t, pipeline.SupportedMediaTypes(), core.MediaTypePDF)
	})

	t.Run("can create loader", func(t *testing.T) {
		loader, err := engine.NewLoader()
		require.NoError(t, err)
		require.NotNil(t, loader)
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := engine.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := engine.NewReembedder(nil, nil)
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})
}

// axisEmbedder returns the same vector for every text so every page matches every query.
func axisEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}
	return embedder
}

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	analyzer := mock.NewMockAnalyzer()
	engine, err := NewEngine("", WithInMemory(),
		WithProvider(mock.NewMockProviderWithServices(axisEmbedder(), analyzer)))
	require.NoError(t, err)
	defer engine.Close()

	// A workbook that was split into sheets before keeps its pages.
	doc := core.NewDocument(core.MediaTypeXLSX, core.NewFile("budget.xlsx", []byte("xlsx")))
	doc.GetOrCreatePage(1).RawText = "Revenue by quarter"
	doc.GetOrCreatePage(2).RawText = "Operating costs"

	pipeline, err := engine.NewPipeline()
	require.NoError(t, err)
	var processed []string
	err = pipeline.ProcessDocuments(ctx, []*core.Document{doc}, &ingestion.ProcessOptions{
		GenerateOverviews: true,
		OnProcessed: func(_ context.Context, name string) error {
			processed = append(processed, name)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"budget.xlsx"}, processed)
	for _, page := range doc.Pages {
		assert.True(t, page.HasOverview())
		assert.True(t, page.HasValidEmbedding())
	}

	repo := engine.DocumentRepository()
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	stored, err := repo.FindDocumentByChecksum(ctx, doc.File.Checksum())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, doc.ID, stored.ID)

	t.Run("search", func(t *testing.T) {
		searcher, err := engine.NewSearcher()
		require.NoError(t, err)

		matches, err := searcher.FindPages(ctx, "operating costs", 5)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, 2, matches[0].Page.Number(), "verbatim match ranks first")
		assert.Equal(t, "budget.xlsx", matches[0].DocumentName)
	})

	t.Run("load context", func(t *testing.T) {
		wf := core.NewWorkflow("review")
		child, err := wf.NewChild("analysis", 1)
		require.NoError(t, err)
		block := child.AddBlock("summary", 1, core.BlockTypeAiQuery)
		block.SupportedDocumentClasses = []string{"Budget"}
		block.AddRagSettings(core.RagTypeUseAutoDetectedTableOfContents, "chapters")

		loader, err := engine.NewLoader()
		require.NoError(t, err)

		var notified []string
		err = loader.LoadContext(ctx, []*core.DocumentInfo{core.NewDocumentInfo(stored, "Budget")}, wf,
			&workflow.LoadOptions{OnProcessed: func(_ context.Context, name string) error {
				notified = append(notified, name)
				return nil
			}})
		require.NoError(t, err)

		assert.Len(t, wf.AllPages, 2)
		require.Len(t, block.Documents, 1)
		assert.Equal(t, stored.ID, block.Documents[0].ID)
		assert.NotEmpty(t, stored.TableOfContents)
		assert.Equal(t, []string{"budget.xlsx"}, notified)
		assert.Equal(t, []mock.TableOfContentsCall{{DocumentID: stored.ID, Model: "chapters"}},
			analyzer.TableOfContentsCalls())
	})

	t.Run("reembed", func(t *testing.T) {
		config := reembed.DefaultConfig()
		config.Force = true
		reembedder, err := engine.NewReembedder(config, nil)
		require.NoError(t, err)
		require.NoError(t, reembedder.Run(ctx))

		reloaded, err := repo.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		for _, page := range reloaded.Pages {
			assert.True(t, page.HasValidEmbedding())
		}
	})
}

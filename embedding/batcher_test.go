package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePages(n int, overview func(i int) string) []*core.Page {
	doc := core.NewDocument(core.MediaTypePDF, nil)
	for i := 1; i <= n; i++ {
		doc.GetOrCreatePage(i).Overview = overview(i)
	}
	return doc.Pages
}

func withOverview(i int) string {
	return fmt.Sprintf("overview %d", i)
}

func TestNewBatcher(t *testing.T) {
	_, err := NewBatcher(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewBatcher(mock.NewMockEmbedder(), WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	b, err := NewBatcher(mock.NewMockEmbedder())
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, b.BatchSize())
}

func TestEmbedPagesBatching(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	b, err := NewBatcher(embedder)
	require.NoError(t, err)

	pages := makePages(120, withOverview)
	stats, err := b.EmbedPages(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, Stats{Candidates: 120, Embedded: 120, Batches: 3}, stats)
	batches := embedder.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 20)

	for _, p := range pages {
		require.True(t, p.HasValidEmbedding())
		assert.Equal(t, mock.DefaultModel, p.Embedding.Model)
		assert.Equal(t, mock.GenerateVector(p.Overview, 384), p.Embedding.Vector)
	}
}

func TestEmbedPagesSkipsNonCandidates(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	b, err := NewBatcher(embedder)
	require.NoError(t, err)

	pages := makePages(3, func(i int) string {
		if i == 2 {
			return "   "
		}
		return withOverview(i)
	})
	valid := core.NewEmbeddingVector("other-model", []float32{1})
	pages[2].Embedding = valid

	stats, err := b.EmbedPages(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Nil(t, pages[1].Embedding, "blank overview must stay without embedding")
	assert.Same(t, valid, pages[2].Embedding)
	assert.Equal(t, "other-model", pages[2].Embedding.Model)
	assert.Equal(t, [][]string{{"overview 1"}}, embedder.Batches())
}

func TestEmbedPagesProviderError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("provider down")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(calls)}
		}
		return out, nil
	}
	b, err := NewBatcher(embedder, WithBatchSize(2))
	require.NoError(t, err)

	pages := makePages(4, withOverview)
	stats, err := b.EmbedPages(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Embedded)
	for _, p := range pages[:2] {
		assert.Equal(t, core.ErrorModel, p.Embedding.Model)
		assert.Empty(t, p.Embedding.Vector)
	}
	for _, p := range pages[2:] {
		assert.Equal(t, []float32{2}, p.Embedding.Vector)
	}
}

func TestEmbedPagesShortResponse(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}, nil}, nil
	}
	b, err := NewBatcher(embedder)
	require.NoError(t, err)

	pages := makePages(3, withOverview)
	stats, err := b.EmbedPages(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Embedded)
	assert.Equal(t, 2, stats.Failed)
	assert.True(t, pages[0].HasValidEmbedding())
	assert.Equal(t, core.ErrorModel, pages[1].Embedding.Model)
	assert.Equal(t, core.ErrorModel, pages[2].Embedding.Model)
	assert.Empty(t, pages[2].Embedding.Vector)
}

func TestEmbedPagesReplacesSentinelInPlace(t *testing.T) {
	b, err := NewBatcher(mock.NewMockEmbedder())
	require.NoError(t, err)

	pages := makePages(1, withOverview)
	stale := core.NewEmbeddingVector(core.ErrorModel, []float32{})
	pages[0].Embedding = stale

	_, err = b.EmbedPages(context.Background(), pages)
	require.NoError(t, err)

	assert.Same(t, stale, pages[0].Embedding)
	assert.Equal(t, mock.DefaultModel, stale.Model)
	assert.NotEmpty(t, stale.Vector)
}

func TestEmbedPagesCancelled(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	b, err := NewBatcher(embedder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.EmbedPages(ctx, makePages(2, withOverview))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, embedder.CallCount())
}

func TestEmbedPage(t *testing.T) {
	t.Run("with overview", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		b, err := NewBatcher(embedder)
		require.NoError(t, err)

		page := core.NewPage("doc", 1)
		page.Overview = "csv overview"
		require.NoError(t, b.EmbedPage(context.Background(), page, "fallback"))

		assert.True(t, page.HasValidEmbedding())
		assert.Equal(t, [][]string{{"csv overview"}}, embedder.Batches())
	})

	t.Run("fallback text records sentinel", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		b, err := NewBatcher(embedder)
		require.NoError(t, err)

		page := core.NewPage("doc", 1)
		require.NoError(t, b.EmbedPage(context.Background(), page, "fallback"))

		assert.Equal(t, [][]string{{"fallback"}}, embedder.Batches())
		require.NotNil(t, page.Embedding)
		assert.Equal(t, core.ErrorModel, page.Embedding.Model)
		assert.Empty(t, page.Embedding.Vector)
	})

	t.Run("provider error records sentinel", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("boom")
		}
		b, err := NewBatcher(embedder)
		require.NoError(t, err)

		page := core.NewPage("doc", 1)
		page.Overview = "x"
		require.NoError(t, b.EmbedPage(context.Background(), page, "fallback"))
		assert.Equal(t, core.ErrorModel, page.Embedding.Model)
	})
}

package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, _, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func newStoredDocument(name string, vectors ...[]float32) *core.Document {
	doc := core.NewDocument(core.MediaTypePDF, core.NewFile(name, []byte("contents of "+name)))
	for i, v := range vectors {
		page := doc.GetOrCreatePage(i + 1)
		page.RawText = name
		page.Overview = "overview of " + name
		if v != nil {
			page.Embedding = core.NewEmbeddingVector("test-model", v)
		}
	}
	return doc
}

func TestDocumentBasics(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := newStoredDocument("report.pdf", []float32{1, 0}, []float32{0, 1})
	doc.TableOfContents = "Intro ... 1"
	doc.Pages[1].SectionTitles = []string{"Body"}
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	got, err := repo.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.MediaType, got.MediaType)
	assert.Equal(t, doc.TableOfContents, got.TableOfContents)
	require.NotNil(t, got.File)
	assert.Equal(t, doc.File.Bytes, got.File.Bytes)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, 1, got.Pages[0].Number())
	assert.Equal(t, 2, got.Pages[1].Number())
	assert.Equal(t, []string{"Body"}, got.Pages[1].SectionTitles)
	assert.Equal(t, doc.Pages[0].Embedding, got.Pages[0].Embedding)

	_, err = repo.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveDocuments_PagesStayOrdered(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := core.NewDocument(core.MediaTypePDF, core.NewFile("long.pdf", []byte("x")))
	for _, n := range []int{300, 2, 256, 1} {
		doc.GetOrCreatePage(n)
	}
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	got, err := repo.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	var numbers []int
	for _, p := range got.Pages {
		numbers = append(numbers, p.Number())
	}
	assert.Equal(t, []int{1, 2, 256, 300}, numbers)
}

func TestSaveDocuments_ReplacesPages(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := newStoredDocument("a.pdf", nil, nil, nil)
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	doc.Pages = doc.Pages[:1]
	doc.Pages[0].Overview = "updated"
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	got, err := repo.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "updated", got.Pages[0].Overview)
}

func TestSaveDocuments_RejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)

	doc := core.NewDocument(core.MediaTypeUnknown, core.NewFile("a.bin", []byte("x")))
	err := repo.SaveDocuments(context.Background(), doc)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestFindDocumentByChecksum(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := newStoredDocument("a.pdf", nil)
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	got, err := repo.FindDocumentByChecksum(ctx, doc.File.Checksum())
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = repo.FindDocumentByChecksum(ctx, core.Checksum([]byte("other")))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// replacing the file moves the index entry
	oldChecksum := doc.File.Checksum()
	doc.File = core.NewFile("a.pdf", []byte("new contents"))
	require.NoError(t, repo.SaveDocuments(ctx, doc))

	_, err = repo.FindDocumentByChecksum(ctx, oldChecksum)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	got, err = repo.FindDocumentByChecksum(ctx, doc.File.Checksum())
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestListAndGetDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := newStoredDocument("a.pdf", nil)
	b := newStoredDocument("b.pdf", nil)
	require.NoError(t, repo.SaveDocuments(ctx, a, b))

	ids, err := repo.ListDocumentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	docs, err := repo.GetDocuments(ctx, a.ID, "missing", b.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.ID, docs[0].ID)
	assert.Equal(t, b.ID, docs[1].ID)
}

func TestDeleteDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := newStoredDocument("a.pdf", []float32{1, 0})
	require.NoError(t, repo.SaveDocuments(ctx, doc))
	require.NoError(t, repo.DeleteDocuments(ctx, doc.ID))

	_, err := repo.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.FindDocumentByChecksum(ctx, doc.File.Checksum())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	matches, err := repo.FindSimilarPages(ctx, []float32{1, 0}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.ErrorIs(t, repo.DeleteDocuments(ctx, doc.ID), storage.ErrNotFound)
}

func TestFindSimilarPages(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := newStoredDocument("a.pdf",
		[]float32{1, 0, 0}, // exact match
		[]float32{0, 0, 1}, // orthogonal
		nil,                // no embedding
	)
	b := newStoredDocument("b.pdf",
		[]float32{0.9, 0.1, 0}, // close match
	)
	sentinel := newStoredDocument("c.pdf", nil)
	sentinel.Pages[0].Embedding = core.NewEmbeddingVector(core.ErrorModel, nil)
	require.NoError(t, repo.SaveDocuments(ctx, a, b, sentinel))

	matches, err := repo.FindSimilarPages(ctx, []float32{1, 0, 0}, 0.6, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, a.ID, matches[0].DocumentID)
	assert.Equal(t, "a.pdf", matches[0].DocumentName)
	assert.Equal(t, 1, matches[0].Page.Number())
	assert.InDelta(t, 1.0, matches[0].Score, 0.0001)

	assert.Equal(t, b.ID, matches[1].DocumentID)
	assert.Equal(t, "b.pdf", matches[1].DocumentName)
	assert.Greater(t, matches[1].Score, float32(0.9))

	limited, err := repo.FindSimilarPages(ctx, []float32{1, 0, 0}, 0.6, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, a.ID, limited[0].DocumentID)
}

func TestFindSimilarPages_InvalidQuery(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.FindSimilarPages(ctx, []float32{1}, 0.5, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	_, err = repo.FindSimilarPages(ctx, nil, 0.5, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDocumentIDFromPageKey(t *testing.T) {
	for _, n := range []int{1, 58, 0x3a3a3a3a} {
		assert.Equal(t, "doc-1", documentIDFromPageKey(makeDocumentPageKey("doc-1", n)))
	}
}

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

package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
//
// A document is stored as a header record, a file record holding the raw bytes
// and one record per page. A checksum index maps file checksums to documents.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return newDocumentRepository(backend), nil
}

func newDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveDocuments validates and stores documents. Each document is written in its
// own transaction so a large file does not push a batch past the transaction
// size limit.
func (r *DocumentRepository) SaveDocuments(ctx context.Context, docs ...*core.Document) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}
		if err := r.saveDocument(doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) saveDocument(doc *core.Document) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		header := storage.NewDocumentHeader(doc)

		old, err := readDocumentHeader(tx, doc.ID)
		if err != nil {
			return err
		}
		if old != nil && old.Checksum != "" && old.Checksum != header.Checksum {
			if err := tx.Delete(makeChecksumKey(old.Checksum)); err != nil {
				return err
			}
		}

		if err := deletePages(tx, doc.ID); err != nil {
			return err
		}

		if err := tx.Set(makeDocumentKey(doc.ID), storage.MarshalDocumentHeader(header)); err != nil {
			return err
		}

		fileKey := makeDocumentFileKey(doc.ID)
		if doc.File != nil {
			if err := tx.Set(fileKey, doc.File.Bytes); err != nil {
				return err
			}
		} else if err := tx.Delete(fileKey); err != nil {
			return err
		}

		for _, page := range doc.Pages {
			if err := tx.Set(makeDocumentPageKey(doc.ID, page.Number()), storage.MarshalPage(page)); err != nil {
				return err
			}
		}

		if header.Checksum != "" {
			if err := tx.Set(makeChecksumKey(header.Checksum), []byte(doc.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocumentIDs returns the IDs of all stored documents.
func (r *DocumentRepository) ListDocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeDocumentKey("")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, string(iter.Item().Key()[len(prefix):]))
		}
		return nil
	}, false)
	return ids, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			header, err := readDocumentHeader(tx, id)
			if err != nil {
				return err
			}
			if header == nil {
				return storage.ErrNotFound
			}

			if header.Checksum != "" {
				owner, err := readChecksumOwner(tx, header.Checksum)
				if err != nil {
					return err
				}
				if owner == id {
					if err := tx.Delete(makeChecksumKey(header.Checksum)); err != nil {
						return err
					}
				}
			}
			if err := deletePages(tx, id); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentFileKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindDocumentByChecksum returns the document created from a file with the given checksum.
func (r *DocumentRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readChecksumOwner(tx, checksum)
		if err != nil {
			return err
		}
		if id == "" {
			return storage.ErrNotFound
		}
		result, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindSimilarPages scans every stored page with a valid embedding.
func (r *DocumentRepository) FindSimilarPages(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.PageMatch, error) {
	if limit <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.PageMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPagePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var page *core.Page
			err := iter.Item().Value(func(val []byte) error {
				var err error
				page, err = storage.UnmarshalPage(val)
				return err
			})
			if err != nil {
				return err
			}
			if !page.HasValidEmbedding() {
				continue
			}

			similarity := cosineSimilarity(vector, page.Embedding.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.PageMatch{
					DocumentID: documentIDFromPageKey(iter.Item().Key()),
					Page:       page,
					Score:      similarity,
				})
			}
		}

		names := make(map[string]string)
		for _, match := range results {
			name, ok := names[match.DocumentID]
			if !ok {
				header, err := readDocumentHeader(tx, match.DocumentID)
				if err != nil {
					return err
				}
				if header != nil {
					name = header.Name
				}
				names[match.DocumentID] = name
			}
			match.DocumentName = name
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.PageMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Helper functions

func readDocumentHeader(tx *badger.Txn, id string) (*storage.DocumentHeader, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var header *storage.DocumentHeader
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		header, unmarshalErr = storage.UnmarshalDocumentHeader(val)
		return unmarshalErr
	})
	return header, err
}

// readDocument assembles a document from its header, file and pages.
// Returns nil, nil when the document does not exist.
func readDocument(tx *badger.Txn, id string) (*core.Document, error) {
	header, err := readDocumentHeader(tx, id)
	if err != nil || header == nil {
		return nil, err
	}

	var fileBytes []byte
	if header.FileID != "" {
		item, err := tx.Get(makeDocumentFileKey(id))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return nil, err
		}
		if err == nil {
			if fileBytes, err = item.ValueCopy(nil); err != nil {
				return nil, err
			}
		}
	}

	pages, err := readPages(tx, id)
	if err != nil {
		return nil, err
	}
	return header.Document(fileBytes, pages), nil
}

func readPages(tx *badger.Txn, documentID string) ([]*core.Page, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialDocumentPageKey(documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var pages []*core.Page
	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			page, err := storage.UnmarshalPage(val)
			if err != nil {
				return err
			}
			pages = append(pages, page)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return pages, nil
}

func deletePages(tx *badger.Txn, documentID string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialDocumentPageKey(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func readChecksumOwner(tx *badger.Txn, checksum string) (string, error) {
	item, err := tx.Get(makeChecksumKey(checksum))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

// documentIDFromPageKey extracts the document ID from prefix:documentID:number.
func documentIDFromPageKey(key []byte) string {
	rest := strings.TrimPrefix(string(key[:len(key)-4]), documentPagePrefix+":")
	return strings.TrimSuffix(rest, ":")
}

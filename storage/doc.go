// Package storage provides the storage abstraction layer for docflow.
//
// This package defines repository interfaces that decouple storage implementation
// from the processing pipeline. Processed documents, their pages, page embeddings
// and tables of contents are persisted through a DocumentRepository.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface:
//
//	repo, err := badger.NewDocumentRepository(backend)  // storage.DocumentRepository
//
// Internal constructors may return concrete types since they are only used within
// the implementation package.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage

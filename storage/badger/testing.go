package badger

import "github.com/poiesic/docflow/storage"

// NewMemoryRepository creates in-memory document and checkpoint repositories for testing.
// Caller must close the backend when done.
func NewMemoryRepository() (storage.DocumentRepository, storage.CheckpointRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}
	return newDocumentRepository(backend), NewCheckpointRepository(backend), backend, nil
}

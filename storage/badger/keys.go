package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	documentPrefix         = "docrec"
	documentFilePrefix     = "docfile"
	documentPagePrefix     = "docpage"
	documentChecksumPrefix = "docsum"
)

// makeDocumentKey generates a key for a document header by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + ":" + id)
}

// makeDocumentFileKey generates a key for the file bytes of a document.
func makeDocumentFileKey(id string) []byte {
	return []byte(documentFilePrefix + ":" + id)
}

// makePartialDocumentPageKey generates the prefix shared by all pages of a document.
// Format: prefix:documentID:
func makePartialDocumentPageKey(documentID string) []byte {
	return []byte(documentPagePrefix + ":" + documentID + ":")
}

// makeDocumentPageKey generates a composite key for a page.
// Format: prefix:documentID:number
func makeDocumentPageKey(documentID string, number int) []byte {
	prefix := makePartialDocumentPageKey(documentID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	// Write in BigEndian order so pages iterate in page-number order
	binary.BigEndian.PutUint32(buf[offset:], uint32(number))
	return buf
}

// makeChecksumKey generates a key for the file checksum index.
func makeChecksumKey(checksum string) []byte {
	return []byte(documentChecksumPrefix + ":" + checksum)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}

package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// NewID returns a random identifier for a domain entity.
func NewID() string {
	return uuid.NewString()
}

// Checksum returns the hex-encoded BLAKE2b-256 digest of data.
// Identical content always produces the same checksum.
func Checksum(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
